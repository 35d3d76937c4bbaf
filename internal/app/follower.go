package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

type FollowerConfig struct {
	StreamID      string        // event stream receiving the lines
	BatchSize     int           // lines per event batch (default: 100)
	FlushInterval time.Duration // flush a partial batch after this long (default: 5s)
}

// LogFollower feeds lines from a LineReader through a log processor and
// groups them into event batches for the orchestrator.
type LogFollower struct {
	reader    ports.LineReader
	processor ports.DataProcessor
	runner    *ProcessorRunner
	streams   *StreamProcessor
	criteria  func() map[string]string
	config    FollowerConfig

	pending domain.Batch
}

// NewLogFollower wires a follower. criteria is consulted at every flush so
// hot-reloaded filter settings apply to the next batch.
func NewLogFollower(
	reader ports.LineReader,
	processor ports.DataProcessor,
	runner *ProcessorRunner,
	streams *StreamProcessor,
	criteria func() map[string]string,
	config FollowerConfig,
) *LogFollower {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if criteria == nil {
		criteria = func() map[string]string { return nil }
	}
	return &LogFollower{
		reader:    reader,
		processor: processor,
		runner:    runner,
		streams:   streams,
		criteria:  criteria,
		config:    config,
		pending:   make(domain.Batch, 0, config.BatchSize),
	}
}

// Run blocks until ctx is cancelled or the reader is exhausted. The
// partial batch is flushed on the way out.
func (f *LogFollower) Run(ctx context.Context) error {
	lines, errs := f.reader.Start(ctx)
	defer func() {
		if err := f.reader.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping line reader")
		}
	}()

	ticker := time.NewTicker(f.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.drain(context.WithoutCancel(ctx), lines)
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Error().Err(err).Msg("Error reading lines")
		case <-ticker.C:
			f.flush(ctx)
		case line, ok := <-lines:
			if !ok {
				log.Info().Msg("Line channel closed")
				f.flush(context.WithoutCancel(ctx))
				return nil
			}
			f.handle(ctx, line)
		}
	}
}

// drain consumes lines already buffered in the channel, then flushes.
func (f *LogFollower) drain(ctx context.Context, lines <-chan string) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				f.flush(ctx)
				return
			}
			f.handle(ctx, line)
		default:
			f.flush(ctx)
			return
		}
	}
}

func (f *LogFollower) handle(ctx context.Context, line string) {
	f.runner.Run(ctx, []Job{{Processor: f.processor, Data: line}})

	f.pending = append(f.pending, line)
	if len(f.pending) >= f.config.BatchSize {
		f.flush(ctx)
	}
}

func (f *LogFollower) flush(ctx context.Context) {
	if len(f.pending) == 0 {
		return
	}

	data := map[string]domain.Batch{f.config.StreamID: f.pending}
	f.streams.ProcessStreams(ctx, data)
	f.streams.FilterStreams(ctx, data, f.criteria())

	log.Debug().Int("lines", len(f.pending)).Str("stream", f.config.StreamID).Msg("Event batch flushed")
	f.pending = make(domain.Batch, 0, f.config.BatchSize)
}
