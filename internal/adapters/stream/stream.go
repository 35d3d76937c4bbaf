// Package stream provides the batch-oriented DataStream adapters.
//
// Each stream embeds base, which owns the identifier, the type label and the
// processed count, and supplies the identity FilterData that variants
// shadow with their own criteria.
package stream

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

var (
	_ ports.DataStream = (*SensorStream)(nil)
	_ ports.DataStream = (*TransactionStream)(nil)
	_ ports.DataStream = (*EventStream)(nil)
)

type base struct {
	id        string
	typeLabel string
	kind      domain.StreamKind
	processed atomic.Int64
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Type() string {
	return b.typeLabel
}

func (b *base) Kind() domain.StreamKind {
	return b.kind
}

// FilterData returns batch unchanged.
func (b *base) FilterData(batch domain.Batch, criteria string) (domain.Batch, error) {
	return batch, nil
}

func (b *base) GetStats() domain.StreamStats {
	return domain.StreamStats{
		StreamID:       b.id,
		ProcessedCount: b.processed.Load(),
		Type:           b.typeLabel,
	}
}

// succeeded counts n aggregated items and builds the success result.
func (b *base) succeeded(n int, format string, args ...any) domain.BatchResult {
	b.processed.Add(int64(n))
	summary := fmt.Sprintf("[%s] ", b.id) + fmt.Sprintf(format, args...)
	return domain.NewBatchResult(b.id, n, summary)
}

func (b *base) failed(n int, what string, err error) domain.BatchResult {
	log.Debug().
		Err(err).
		Str("stream", b.id).
		Int("items", n).
		Msg("Batch rejected")
	summary := fmt.Sprintf("[%s] Invalid %s data", b.id, what)
	return domain.FailedBatchResult(b.id, n, summary, fmt.Errorf("%s: %w", b.id, err))
}

// keepNumbers returns the items for which keep returns true. A non-numeric
// item is an error; the comparison has no meaning for it.
func keepNumbers(batch domain.Batch, keep func(float64) bool) (domain.Batch, error) {
	out := make(domain.Batch, 0, len(batch))
	for i, v := range batch {
		n, ok := domain.AsNumber(v)
		if !ok {
			return nil, fmt.Errorf("item %d (%T): %w", i, v, domain.ErrTypeMismatch)
		}
		if keep(n) {
			out = append(out, v)
		}
	}
	return out, nil
}

func keepStrings(batch domain.Batch, keep func(string) bool) (domain.Batch, error) {
	out := make(domain.Batch, 0, len(batch))
	for i, v := range batch {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("item %d (%T): %w", i, v, domain.ErrTypeMismatch)
		}
		if keep(s) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Options tune stream construction through New.
type Options struct {
	SensorThreshold float64
	ErrorMarkers    []string
}

func DefaultOptions() Options {
	return Options{
		SensorThreshold: DefaultSensorThreshold,
		ErrorMarkers:    []string{DefaultErrorMarker},
	}
}

// New builds a stream of the given kind.
func New(kind domain.StreamKind, id string, opts Options) (ports.DataStream, error) {
	switch kind {
	case domain.StreamKindSensor:
		return NewSensorStream(id, opts.SensorThreshold), nil
	case domain.StreamKindTransaction:
		return NewTransactionStream(id), nil
	case domain.StreamKindEvent:
		return NewEventStream(id, opts.ErrorMarkers...), nil
	default:
		return nil, fmt.Errorf("stream %s: %q: %w", id, kind, domain.ErrUnknownStreamKind)
	}
}
