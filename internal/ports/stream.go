package ports

import "github.com/xoelrdgz/polystream/internal/domain"

// DataStream aggregates and filters batches, counting the items it has
// successfully aggregated.
//
// Implementations:
//   - SensorStream: average of numeric readings
//   - TransactionStream: net sum of signed amounts
//   - EventStream: error count among event strings
//
// Thread Safety: a stream has a single writer. GetStats may be called from
// other goroutines.
type DataStream interface {
	ID() string
	Type() string
	Kind() domain.StreamKind

	// ProcessBatch aggregates batch. It never panics on bad input: a failed
	// aggregation yields a result with Err set and leaves the processed
	// count unchanged.
	ProcessBatch(batch domain.Batch) domain.BatchResult

	// FilterData returns the subsequence of batch matching criteria. Empty
	// or unrecognized criteria return batch unchanged.
	FilterData(batch domain.Batch, criteria string) (domain.Batch, error)

	GetStats() domain.StreamStats
}
