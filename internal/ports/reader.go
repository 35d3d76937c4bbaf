package ports

import (
	"context"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// LineReader delivers raw text lines, e.g. from a followed file.
type LineReader interface {
	Start(ctx context.Context) (<-chan string, <-chan error)
	Stop() error
}

// BatchSource supplies data sets keyed by stream identifier, together with
// the filter criteria each stream should be filtered with.
type BatchSource interface {
	Next(ctx context.Context) (map[string]domain.Batch, error)
	Criteria() map[string]string
}
