package ports

import (
	"context"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// Reporter renders results to an output destination (console, JSON, memory).
//
// Thread Safety: implementations MUST be safe for concurrent calls; the
// log follower reports from the tailer goroutine while the CLI may flush.
type Reporter interface {
	Section(title string)
	ReportProcessor(ctx context.Context, outcome domain.ProcessorOutcome) error
	ReportBatch(ctx context.Context, result domain.BatchResult) error
	ReportFilter(ctx context.Context, result domain.FilterResult) error
	ReportStats(ctx context.Context, stats []domain.StreamStats) error
	Flush() error
	Close() error
}

// ResultObserver is notified synchronously of every result. Used for
// metric collection; implementations should return quickly.
type ResultObserver interface {
	OnBatch(result domain.BatchResult)
	OnFilter(result domain.FilterResult)
	OnProcessor(outcome domain.ProcessorOutcome)
}
