package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data/pgxutil"
	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// breakerRowID pins the breaker to a single durable row.
const breakerRowID = 1

// BreakerRepo persists the dispatch circuit breaker in the generation_breaker
// table. All writes go through a SELECT ... FOR UPDATE read-modify-write so
// concurrent manager cycles serialize on the row instead of clobbering each
// other's counters.
type BreakerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewBreakerRepo creates a BreakerRepo with the given database connection and configuration.
func NewBreakerRepo(db *sql.DB, cfg RepoConfig) *BreakerRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &BreakerRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

var _ core.BreakerStore = (*BreakerRepo)(nil)

// Load reads the current breaker state. A missing row reads as closed.
func (r *BreakerRepo) Load(ctx context.Context) (model.BreakerState, error) {
	var state model.BreakerState
	var lastFailureAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
		SELECT failure_count, last_failure_at, is_open
		FROM generation_breaker
		WHERE id = $1
	`, breakerRowID).Scan(&state.Failures, &lastFailureAt, &state.Open)
	if err == sql.ErrNoRows {
		return model.BreakerState{}, nil
	}
	if err != nil {
		return model.BreakerState{}, fmt.Errorf("load breaker state: %w", err)
	}

	state.LastFailureAt = cloneNullableTime(lastFailureAt)
	return state, nil
}

// Mutate applies fn to the breaker state inside a row-locking transaction and
// persists the result. The row is created on first use.
func (r *BreakerRepo) Mutate(ctx context.Context, fn func(state model.BreakerState) model.BreakerState) (model.BreakerState, error) {
	var next model.BreakerState
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO generation_breaker (id, failure_count, is_open)
				VALUES ($1, 0, FALSE)
				ON CONFLICT (id) DO NOTHING
			`, breakerRowID); err != nil {
				return fmt.Errorf("ensure breaker row: %w", err)
			}

			var current model.BreakerState
			var lastFailureAt sql.NullTime
			if err := tx.QueryRowContext(ctx, `
				SELECT failure_count, last_failure_at, is_open
				FROM generation_breaker
				WHERE id = $1
				FOR UPDATE
			`, breakerRowID).Scan(&current.Failures, &lastFailureAt, &current.Open); err != nil {
				return fmt.Errorf("lock breaker row: %w", err)
			}
			current.LastFailureAt = cloneNullableTime(lastFailureAt)

			next = fn(current)

			var failedAt any
			if next.LastFailureAt != nil {
				failedAt = next.LastFailureAt.UTC()
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE generation_breaker
				SET failure_count = $2,
				    last_failure_at = $3,
				    is_open = $4,
				    updated_at = $5
				WHERE id = $1
			`, breakerRowID, next.Failures, failedAt, next.Open, r.timeProvider.Now().UTC()); err != nil {
				return fmt.Errorf("store breaker state: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return model.BreakerState{}, err
	}

	if next.Open && r.logger != nil {
		r.logger.WarnContext(ctx, "circuit breaker open",
			"failures", next.Failures,
		)
	}
	return next, nil
}
