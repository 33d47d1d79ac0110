// Package batch holds the pure batch-sizing policy for ticket generation.
// Keeping it free of I/O makes the policy trivially unit-testable.
package batch

// MinBatchSize is the floor below which scaling never drops a batch.
const MinBatchSize = 100

// Base batch sizes by raffle magnitude. Larger raffles use smaller batches to
// bound per-call latency and lock duration on the tickets table.
const (
	sizeSmall  = 5000 // up to 50k tickets
	sizeMedium = 2500 // up to 500k
	sizeLarge  = 1000 // up to 2M
	sizeHuge   = 500  // beyond
)

// Contention thresholds: with several jobs running at once, shrink batches to
// trade per-call efficiency for fairness and reduced database contention.
const (
	heavyContentionWorkers = 4
	lightContentionWorkers = 3
)

// Size returns the batch size for a job given the raffle size and the number
// of jobs currently running system-wide.
func Size(totalTickets int64, activeWorkers int) int {
	size := baseFor(totalTickets)

	switch {
	case activeWorkers >= heavyContentionWorkers:
		size = size * 70 / 100
	case activeWorkers >= lightContentionWorkers:
		size = size * 85 / 100
	}

	if size < MinBatchSize {
		size = MinBatchSize
	}
	return size
}

func baseFor(totalTickets int64) int {
	switch {
	case totalTickets <= 50_000:
		return sizeSmall
	case totalTickets <= 500_000:
		return sizeMedium
	case totalTickets <= 2_000_000:
		return sizeLarge
	default:
		return sizeHuge
	}
}

// Count returns how many batches of the given size cover totalTickets.
func Count(totalTickets int64, batchSize int) int {
	if totalTickets <= 0 || batchSize <= 0 {
		return 0
	}
	return int((totalTickets + int64(batchSize) - 1) / int64(batchSize))
}

// Range returns the inclusive one-based ticket index range for a zero-based
// batch cursor, clamped to totalTickets.
func Range(batch, batchSize int, totalTickets int64) (start, end int64) {
	start = int64(batch)*int64(batchSize) + 1
	end = start + int64(batchSize) - 1
	if end > totalTickets {
		end = totalTickets
	}
	return start, end
}
