package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeManager runs the generation manager dispatch loop.
	ServiceModeManager ServiceMode = "manager"
	// ServiceModeReaper runs the job reaper for cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeManager,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeManager, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, manager, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ManagerConfig contains generation manager configuration.
type ManagerConfig struct {
	// MaxWorkers bounds how many generation jobs may run concurrently.
	MaxWorkers int `env:"MANAGER_MAX_WORKERS" envDefault:"5"`

	// RunningTimeout is how long a job may sit in running before the
	// watchdog reclaims it as stale.
	RunningTimeout time.Duration `env:"MANAGER_RUNNING_TIMEOUT" envDefault:"30m"`

	// Interval is the dispatch loop tick interval.
	Interval time.Duration `env:"MANAGER_INTERVAL" envDefault:"10s"`

	// BreakerThreshold is the failure count that opens the circuit breaker.
	BreakerThreshold int `env:"MANAGER_BREAKER_THRESHOLD" envDefault:"5"`

	// BreakerCooldown is how long dispatch stays suppressed once the breaker opens.
	BreakerCooldown time.Duration `env:"MANAGER_BREAKER_COOLDOWN" envDefault:"60s"`
}

// Sanitize applies guardrails to manager configuration values.
func (m *ManagerConfig) Sanitize() {
	if m.MaxWorkers < 1 {
		m.MaxWorkers = 1
	}
	if m.RunningTimeout < time.Minute {
		m.RunningTimeout = time.Minute
	}
	if m.Interval < time.Second {
		m.Interval = time.Second
	}
	if m.BreakerThreshold < 1 {
		m.BreakerThreshold = 1
	}
	if m.BreakerCooldown < time.Second {
		m.BreakerCooldown = time.Second
	}
}

// WorkerConfig contains generation worker configuration.
type WorkerConfig struct {
	// MaxBatchesPerRun caps how many batches one invocation processes
	// before yielding the job back to pending.
	MaxBatchesPerRun int `env:"WORKER_MAX_BATCHES_PER_RUN" envDefault:"200"`

	// CheckpointEvery controls how often progress is persisted mid-run.
	CheckpointEvery int `env:"WORKER_CHECKPOINT_EVERY" envDefault:"10"`

	// RetryAttempts is the total attempt budget per batch insert, the first
	// try included.
	RetryAttempts int `env:"WORKER_RETRY_ATTEMPTS" envDefault:"3"`

	// RetryBaseDelay seeds the exponential backoff between batch retries.
	RetryBaseDelay time.Duration `env:"WORKER_RETRY_BASE_DELAY" envDefault:"2s"`

	// RetryMaxDelay caps the backoff between batch retries.
	RetryMaxDelay time.Duration `env:"WORKER_RETRY_MAX_DELAY" envDefault:"30s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.MaxBatchesPerRun < 1 {
		w.MaxBatchesPerRun = 1
	}
	if w.CheckpointEvery < 1 {
		w.CheckpointEvery = 1
	}
	if w.RetryAttempts < 1 {
		w.RetryAttempts = 1
	}
	if w.RetryBaseDelay <= 0 {
		w.RetryBaseDelay = 2 * time.Second
	}
	if w.RetryMaxDelay < w.RetryBaseDelay {
		w.RetryMaxDelay = 30 * time.Second
	}
}

// ReaperConfig contains job reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// CompletedMaxAge is the maximum age for completed jobs before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed jobs before deletion.
	FailedMaxAge time.Duration `env:"REAPER_FAILED_MAX_AGE" envDefault:"168h"` // 7 days

	// PendingMaxAge is how long a pending job may sit undispatched before the
	// reaper fails it as abandoned.
	PendingMaxAge time.Duration `env:"REAPER_PENDING_MAX_AGE" envDefault:"72h"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}
	if r.FailedMaxAge < 1*time.Hour {
		r.FailedMaxAge = 1 * time.Hour
	}
	if r.PendingMaxAge < 1*time.Hour {
		r.PendingMaxAge = 1 * time.Hour
	}
}
