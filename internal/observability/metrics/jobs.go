package metrics

import (
	"time"

	obserrors "github.com/raffleworks/ticketgen/internal/observability/errors"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// JobMetric captures details about a generation job lifecycle event for metric emission.
type JobMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits standardised job lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("generation.job.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("generation.job.duration", in.Duration, CloneTags(tags))
	}
}

// BatchMetric captures one processed batch for metric emission.
type BatchMetric struct {
	Inserted  int64
	BatchSize int
	Duration  time.Duration
	Retried   bool
}

// EmitBatch emits per-batch throughput metrics.
func EmitBatch(sink statsd.Sink, in BatchMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{}
	if in.Retried {
		tags["retried"] = "true"
	}

	sink.Count("generation.batch.tickets", in.Inserted, tags)
	sink.Gauge("generation.batch.size", float64(in.BatchSize), CloneTags(tags))
	if in.Duration > 0 {
		sink.Timing("generation.batch.duration", in.Duration, CloneTags(tags))
	}
}

// EmitDispatchCycle emits a summary of one manager dispatch cycle.
func EmitDispatchCycle(sink statsd.Sink, dispatched, failed, reclaimed int, breakerState string) {
	if sink == nil {
		return
	}

	tags := map[string]string{"breaker": breakerState}
	sink.Count("generation.dispatch.jobs", int64(dispatched), CloneTags(tags))
	if failed > 0 {
		sink.Count("generation.dispatch.failures", int64(failed), CloneTags(tags))
	}
	if reclaimed > 0 {
		sink.Count("generation.dispatch.reclaimed", int64(reclaimed), CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
