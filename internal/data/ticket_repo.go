package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// TicketRepo materialises ticket rows for contiguous index ranges. One
// INSERT ... SELECT per batch keeps the round trips at one per batch
// regardless of batch size, and ON CONFLICT DO NOTHING makes re-running a
// range after a crash or reclaim harmless.
type TicketRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewTicketRepo creates a TicketRepo with the given database connection and configuration.
func NewTicketRepo(db *sql.DB, cfg RepoConfig) *TicketRepo {
	return &TicketRepo{
		DB:     db,
		logger: cfg.Logger,
	}
}

var _ core.TicketWriter = (*TicketRepo)(nil)

// GenerateBatch inserts tickets for the inclusive index range in one
// statement and returns how many rows were actually inserted. Indices that
// already exist are skipped, so the count reflects only new tickets.
func (r *TicketRepo) GenerateBatch(ctx context.Context, req core.GenerateBatchRequest) (int64, error) {
	if req.RaffleID == "" {
		return 0, errors.New("raffle id is required")
	}
	if req.StartIndex < 1 || req.EndIndex < req.StartIndex {
		return 0, fmt.Errorf("invalid index range [%d, %d]", req.StartIndex, req.EndIndex)
	}

	numbering, err := model.ParseNumberingConfig(req.NumberingConfig)
	if err != nil {
		return 0, err
	}

	query, args := buildGenerateBatchQuery(req, numbering)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("generate ticket batch: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("generate batch rows affected: %w", err)
	}
	return inserted, nil
}

// buildGenerateBatchQuery renders the batch insert for the numbering format.
// Ticket numbers are computed inside the statement so the whole batch is a
// single round trip.
func buildGenerateBatchQuery(req core.GenerateBatchRequest, numbering model.NumberingConfig) (string, []any) {
	switch numbering.Format {
	case model.NumberingPrefixed:
		pad := numbering.Pad
		if pad <= 0 {
			// lpad with the natural width is a no-op rendering.
			pad = 1
		}
		query := `
			INSERT INTO tickets (raffle_id, ticket_index, ticket_number)
			SELECT $1, gs.idx, $4 || lpad(gs.idx::text, GREATEST($5, length(gs.idx::text)), '0')
			FROM generate_series($2::bigint, $3::bigint) AS gs(idx)
			ON CONFLICT (raffle_id, ticket_index) DO NOTHING
		`
		return query, []any{req.RaffleID, req.StartIndex, req.EndIndex, numbering.Prefix, pad}
	default:
		query := `
			INSERT INTO tickets (raffle_id, ticket_index, ticket_number)
			SELECT $1, gs.idx, gs.idx::text
			FROM generate_series($2::bigint, $3::bigint) AS gs(idx)
			ON CONFLICT (raffle_id, ticket_index) DO NOTHING
		`
		return query, []any{req.RaffleID, req.StartIndex, req.EndIndex}
	}
}

// CountForRaffle returns how many tickets exist for a raffle.
func (r *TicketRepo) CountForRaffle(ctx context.Context, raffleID string) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM tickets WHERE raffle_id = $1
	`, raffleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}
