package data

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/testutil"
)

func TestTicketRepo_GenerateBatch(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewTicketRepo(db, RepoConfig{})
	ctx := context.Background()

	t.Run("sequential numbering renders the index", func(t *testing.T) {
		inserted, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:   "raffle-seq",
			StartIndex: 1,
			EndIndex:   100,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(100), inserted)

		var number string
		require.NoError(t, db.QueryRowContext(ctx, `
			SELECT ticket_number FROM tickets WHERE raffle_id = $1 AND ticket_index = 42
		`, "raffle-seq").Scan(&number))
		assert.Equal(t, "42", number)
	})

	t.Run("re-running a range inserts nothing", func(t *testing.T) {
		inserted, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:   "raffle-seq",
			StartIndex: 1,
			EndIndex:   100,
		})

		require.NoError(t, err)
		assert.Zero(t, inserted)

		count, err := repo.CountForRaffle(ctx, "raffle-seq")
		require.NoError(t, err)
		assert.Equal(t, int64(100), count)
	})

	t.Run("overlapping range only inserts the new tail", func(t *testing.T) {
		inserted, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:   "raffle-seq",
			StartIndex: 51,
			EndIndex:   150,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(50), inserted)
	})

	t.Run("prefixed numbering pads the index", func(t *testing.T) {
		inserted, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:        "raffle-prefixed",
			StartIndex:      1,
			EndIndex:        10,
			NumberingConfig: json.RawMessage(`{"format":"prefixed","prefix":"RF-","pad":6}`),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), inserted)

		var number string
		require.NoError(t, db.QueryRowContext(ctx, `
			SELECT ticket_number FROM tickets WHERE raffle_id = $1 AND ticket_index = 7
		`, "raffle-prefixed").Scan(&number))
		assert.Equal(t, "RF-000007", number)
	})

	t.Run("pad never truncates wide indices", func(t *testing.T) {
		inserted, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:        "raffle-wide",
			StartIndex:      123_456,
			EndIndex:        123_456,
			NumberingConfig: json.RawMessage(`{"format":"prefixed","prefix":"T","pad":3}`),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), inserted)

		var number string
		require.NoError(t, db.QueryRowContext(ctx, `
			SELECT ticket_number FROM tickets WHERE raffle_id = $1 AND ticket_index = 123456
		`, "raffle-wide").Scan(&number))
		assert.Equal(t, "T123456", number)
	})

	t.Run("rejects invalid ranges", func(t *testing.T) {
		_, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:   "raffle-bad",
			StartIndex: 0,
			EndIndex:   10,
		})
		require.Error(t, err)

		_, err = repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:   "raffle-bad",
			StartIndex: 10,
			EndIndex:   5,
		})
		require.Error(t, err)
	})

	t.Run("rejects missing raffle id", func(t *testing.T) {
		_, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			StartIndex: 1,
			EndIndex:   10,
		})
		require.Error(t, err)
	})

	t.Run("rejects unknown numbering formats", func(t *testing.T) {
		_, err := repo.GenerateBatch(ctx, core.GenerateBatchRequest{
			RaffleID:        "raffle-bad",
			StartIndex:      1,
			EndIndex:        10,
			NumberingConfig: json.RawMessage(`{"format":"roman"}`),
		})
		require.Error(t, err)
	})
}
