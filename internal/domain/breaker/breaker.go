// Package breaker implements the pure decision logic for the dispatch
// circuit breaker. The durable counters live in a database row owned by the
// data layer; this package only decides, it never stores.
package breaker

import (
	"errors"
	"time"

	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// Defaults for the dispatch breaker.
const (
	DefaultThreshold = 5
	DefaultCooldown  = 60 * time.Second
)

// ErrInvalidThreshold indicates a non-positive trip threshold.
var ErrInvalidThreshold = errors.New("breaker threshold must be positive")

// Settings configure the breaker's trip threshold and cooldown window.
type Settings struct {
	Threshold int
	Cooldown  time.Duration
}

// NewSettings validates and normalises breaker settings.
func NewSettings(threshold int, cooldown time.Duration) (Settings, error) {
	if threshold <= 0 {
		return Settings{}, ErrInvalidThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return Settings{Threshold: threshold, Cooldown: cooldown}, nil
}

// Decision is the outcome of gating one manager cycle against the breaker.
type Decision struct {
	// Suppress is true while the breaker is open and cooling down; no
	// dispatch may happen this cycle.
	Suppress bool
	// Remaining is how much cooldown is left when Suppress is true.
	Remaining time.Duration
	// Reset is true when the cooldown has elapsed and the caller should
	// persist a closed state before dispatching (half-close).
	Reset bool
}

// Gate evaluates the persisted breaker state at the start of a cycle.
func (s Settings) Gate(state model.BreakerState, now time.Time) Decision {
	if !state.Open {
		return Decision{}
	}
	if state.LastFailureAt == nil {
		// An open breaker without a failure timestamp cannot cool down;
		// treat it as immediately resettable.
		return Decision{Reset: true}
	}

	elapsed := now.Sub(*state.LastFailureAt)
	if elapsed < s.Cooldown {
		return Decision{Suppress: true, Remaining: s.Cooldown - elapsed}
	}
	return Decision{Reset: true}
}

// RecordFailures folds dispatch failures from one cycle into the state,
// opening the breaker once the threshold is reached.
func (s Settings) RecordFailures(state model.BreakerState, failures int, now time.Time) model.BreakerState {
	if failures <= 0 {
		return state
	}

	state.Failures += failures
	t := now
	state.LastFailureAt = &t
	if state.Failures >= s.Threshold {
		state.Open = true
	}
	return state
}

// Closed returns a zeroed breaker state.
func Closed() model.BreakerState {
	return model.BreakerState{}
}

// Label renders the state for dispatch summaries.
func Label(state model.BreakerState) string {
	if state.Open {
		return model.BreakerStateOpen
	}
	return model.BreakerStateClosed
}
