package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

// StreamProcessor runs a fixed, ordered set of streams over data sets keyed
// by stream identifier. A failing or panicking stream is reported and
// skipped; it never stops the pass.
type StreamProcessor struct {
	streams []ports.DataStream
	index   map[string]ports.DataStream
	metrics *domain.RunMetrics
	sizes   *batchSizes

	reporters []ports.Reporter
	observers []ports.ResultObserver
	mu        sync.RWMutex
}

func NewStreamProcessor(streams []ports.DataStream, metrics *domain.RunMetrics) (*StreamProcessor, error) {
	if metrics == nil {
		metrics = domain.NewRunMetrics()
	}

	index := make(map[string]ports.DataStream, len(streams))
	for _, s := range streams {
		if _, dup := index[s.ID()]; dup {
			return nil, fmt.Errorf("%s: %w", s.ID(), domain.ErrDuplicateStream)
		}
		index[s.ID()] = s
	}

	return &StreamProcessor{
		streams: streams,
		index:   index,
		metrics: metrics,
		sizes:   newBatchSizes(),
	}, nil
}

func (p *StreamProcessor) AddReporter(r ports.Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporters = append(p.reporters, r)
}

func (p *StreamProcessor) AddObserver(o ports.ResultObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

func (p *StreamProcessor) Streams() []ports.DataStream {
	return p.streams
}

func (p *StreamProcessor) Stream(id string) (ports.DataStream, bool) {
	s, ok := p.index[id]
	return s, ok
}

// ProcessStreams hands every stream its batch from dataByID, in stream
// order. Streams without an entry get an empty batch.
func (p *StreamProcessor) ProcessStreams(ctx context.Context, dataByID map[string]domain.Batch) []domain.BatchResult {
	results := make([]domain.BatchResult, 0, len(p.streams))

	for _, s := range p.streams {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Str("next_stream", s.ID()).Msg("Batch pass cancelled")
			break
		}

		batch := batchFor(dataByID, s.ID())
		result := p.processOne(s, batch)

		p.sizes.Record(len(batch))
		p.metrics.RecordBatch(result)
		p.forEachObserver(func(o ports.ResultObserver) { o.OnBatch(result) })
		p.forEachReporter(ctx, func(r ports.Reporter) error { return r.ReportBatch(ctx, result) })

		results = append(results, result)
	}
	return results
}

func (p *StreamProcessor) processOne(s ports.DataStream, batch domain.Batch) (result domain.BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stream", s.ID()).
				Msg("Stream panic recovered")
			result = domain.FailedBatchResult(s.ID(), len(batch),
				fmt.Sprintf("Processing error in %s: %v", s.ID(), r),
				fmt.Errorf("%s: %v: %w", s.ID(), r, domain.ErrStreamPanic))
		}
	}()
	return s.ProcessBatch(batch)
}

// FilterStreams filters every stream's batch with its criteria from
// criteriaByID. A missing criteria entry leaves the batch unfiltered.
func (p *StreamProcessor) FilterStreams(ctx context.Context, dataByID map[string]domain.Batch, criteriaByID map[string]string) []domain.FilterResult {
	results := make([]domain.FilterResult, 0, len(p.streams))

	for _, s := range p.streams {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Str("next_stream", s.ID()).Msg("Filter pass cancelled")
			break
		}

		batch := batchFor(dataByID, s.ID())
		result := p.filterOne(s, batch, criteriaByID[s.ID()])

		p.metrics.RecordFilter(result)
		p.forEachObserver(func(o ports.ResultObserver) { o.OnFilter(result) })
		p.forEachReporter(ctx, func(r ports.Reporter) error { return r.ReportFilter(ctx, result) })

		results = append(results, result)
	}
	return results
}

func (p *StreamProcessor) filterOne(s ports.DataStream, batch domain.Batch, criteria string) (result domain.FilterResult) {
	result = domain.FilterResult{
		StreamID: s.ID(),
		Criteria: criteria,
		Input:    len(batch),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stream", s.ID()).
				Msg("Stream panic recovered during filtering")
			result.Kept = nil
			result.Err = fmt.Errorf("%s: %v: %w", s.ID(), r, domain.ErrStreamPanic)
		}
	}()

	kept, err := s.FilterData(batch, criteria)
	if err != nil {
		result.Err = fmt.Errorf("%s: filter %q: %w", s.ID(), criteria, err)
		return result
	}
	result.Kept = kept
	return result
}

func (p *StreamProcessor) Stats() []domain.StreamStats {
	stats := make([]domain.StreamStats, 0, len(p.streams))
	for _, s := range p.streams {
		stats = append(stats, s.GetStats())
	}
	return stats
}

// ReportStats sends the current stats to every reporter.
func (p *StreamProcessor) ReportStats(ctx context.Context) []domain.StreamStats {
	stats := p.Stats()
	p.forEachReporter(ctx, func(r ports.Reporter) error { return r.ReportStats(ctx, stats) })
	return stats
}

func (p *StreamProcessor) Summary() domain.RunSummary {
	snap := p.metrics.GetSnapshot()
	summary := domain.RunSummary{
		Streams:        len(p.streams),
		Batches:        snap.Batches,
		FailedBatches:  snap.FailedBatches,
		ItemsProcessed: snap.ItemsProcessed,
		ItemsKept:      snap.ItemsKept,
	}
	p.sizes.Fill(&summary)
	return summary
}

func (p *StreamProcessor) forEachObserver(fn func(ports.ResultObserver)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, o := range p.observers {
		fn(o)
	}
}

func (p *StreamProcessor) forEachReporter(ctx context.Context, fn func(ports.Reporter) error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.reporters {
		if err := fn(r); err != nil {
			log.Error().Err(err).Msg("Failed to report result")
		}
	}
}

func batchFor(dataByID map[string]domain.Batch, id string) domain.Batch {
	if batch, ok := dataByID[id]; ok && batch != nil {
		return batch
	}
	return domain.Batch{}
}
