package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/xoelrdgz/polystream/internal/adapters/input"
	"github.com/xoelrdgz/polystream/internal/adapters/processor"
	"github.com/xoelrdgz/polystream/internal/adapters/stream"
	"github.com/xoelrdgz/polystream/internal/app"
	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

// runProcessors drives each processor over one good and one bad datum,
// then shows polymorphic dispatch and the FormatOutput override.
func runProcessors(s *session) error {
	runner := s.newRunner()
	procs := s.processors()
	numeric, text, logp := procs[0], procs[1], procs[2]

	steps := []struct {
		title   string
		label   string
		good    any
		bad     any
		handler ports.DataProcessor
	}{
		{"Numeric Processor", "[1, 2, 3, 4, 5]", []int{1, 2, 3, 4, 5}, "Hi!", numeric},
		{"Text Processor", `"Hello Nexus World"`, "Hello Nexus World", 45, text},
		{"Log Processor", `"ERROR: Connection timeout"`, "ERROR: Connection timeout", 45, logp},
	}

	for _, step := range steps {
		s.reporter.Section(step.title)
		s.note("Processing data: %s", step.label)
		runner.Run(s.ctx, []app.Job{{Processor: step.handler, Data: step.good}})
		s.note("Error check: %v", step.bad)
		runner.Run(s.ctx, []app.Job{{Processor: step.handler, Data: step.bad}})
	}

	s.reporter.Section("Polymorphic Processing Demo")
	s.note("Processing multiple data types through same interface...")
	runner.Run(s.ctx, app.Pair(procs, []any{[]int{6, 0, 0}, "ABCDEF ABCDE", "INFO: System ready"}))

	s.reporter.Section("Override Demo")
	runner.Overrides(s.ctx, procs, []string{"For numbers", "For texts", "For Log"})

	return s.reporter.Flush()
}

// runStreams feeds every data set of the source through the streams and
// reports statistics at the end.
func runStreams(s *session) error {
	src, streams, err := s.batchSource()
	if err != nil {
		return err
	}

	sp, err := s.newStreamProcessor(streams)
	if err != nil {
		return err
	}
	s.startMetrics(sp)

	criteria := make(map[string]string, len(s.settings.Criteria))
	for id, c := range s.settings.Criteria {
		criteria[id] = c
	}
	for id, c := range src.Criteria() {
		criteria[id] = c
	}

	rounds := 0
	for {
		data, err := src.Next(s.ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if s.ctx.Err() != nil {
				log.Info().Msg("Interrupted, reporting partial results")
				break
			}
			return err
		}
		rounds++

		suffix := ""
		if rounds > 1 {
			suffix = fmt.Sprintf(" (set %d)", rounds)
		}
		s.reporter.Section("Batch Processing" + suffix)
		sp.ProcessStreams(s.ctx, data)

		s.reporter.Section("Filtering" + suffix)
		sp.FilterStreams(s.ctx, data, criteria)
	}

	s.reporter.Section("Stream Statistics")
	sp.ReportStats(s.ctx)
	if s.console != nil && rounds > 1 {
		s.console.ReportSummary(sp.Summary())
	}

	summary := sp.Summary()
	log.Debug().
		Int64("batches", summary.Batches).
		Int64("failed", summary.FailedBatches).
		Int64("items", summary.ItemsProcessed).
		Msg("Stream run complete")

	return s.reporter.Flush()
}

// batchSource picks the data set: --demo, --data, data.file, or the
// built-in demo data, in that order.
func (s *session) batchSource() (ports.BatchSource, []ports.DataStream, error) {
	if demoMode {
		streams, err := app.BuildStreams(s.settings)
		if err != nil {
			return nil, nil, err
		}
		cfg := input.GeneratorConfig{
			Rate:      s.settings.DemoRate,
			Batches:   s.settings.DemoBatches,
			BatchSize: s.settings.DemoBatchSize,
			ErrorRate: input.DefaultGeneratorConfig().ErrorRate,
			Criteria:  s.settings.Criteria,
		}
		if demoRate > 0 {
			cfg.Rate = demoRate
		}
		if demoCount > 0 {
			cfg.Batches = demoCount
		}
		entries := make([]input.StreamKindEntry, len(streams))
		for i, ds := range streams {
			entries[i] = input.StreamKindEntry{ID: ds.ID(), Kind: ds.Kind()}
		}
		log.Info().Int("rate", cfg.Rate).Int("batches", cfg.Batches).Msg("Generating synthetic batches")
		return input.NewGenerator(entries, cfg), streams, nil
	}

	var ds *input.Dataset
	path := dataFile
	if path == "" {
		path = viper.GetString("data.file")
	}
	if path != "" {
		var err error
		if ds, err = input.LoadDataset(path); err != nil {
			return nil, nil, err
		}
		log.Info().Str("file", path).Int("streams", len(ds.Streams)).Msg("Data set loaded")
	} else {
		ds = input.DefaultDataset()
	}

	streams := make([]ports.DataStream, 0, len(ds.Streams))
	for _, e := range ds.Kinds() {
		st, err := stream.New(e.Kind, e.ID, s.settings.StreamOptions())
		if err != nil {
			return nil, nil, err
		}
		streams = append(streams, st)
	}
	return ds, streams, nil
}

// runTail follows a log file until interrupted.
func runTail(s *session) error {
	path := tailPath
	if path == "" {
		path = viper.GetString("tail.path")
	}
	if path == "" {
		return fmt.Errorf("log file path required: use --log or tail.path")
	}

	streamID := tailStreamID(s.settings)
	events := stream.NewEventStream(streamID, s.settings.ErrorMarkers...)
	sp, err := s.newStreamProcessor([]ports.DataStream{events})
	if err != nil {
		return err
	}
	s.startMetrics(sp)

	hot := app.NewHotReloadConfig(viper.GetViper(), s.settings)
	if viper.ConfigFileUsed() != "" {
		hot.StartWatching(s.ctx)
	}
	defer hot.Stop()

	tailer := input.NewFileTailer(path, s.settings.TailBatchSize*10)
	tailer.SetFromBeginning(fromStart || viper.GetBool("tail.from_start"))

	logCfg := processor.DefaultLogProcessorConfig()
	logCfg.MaxMessage = s.settings.LogMaxMessage

	follower := app.NewLogFollower(
		tailer,
		processor.NewLogProcessor(logCfg),
		s.newRunner(),
		sp,
		hot.Criteria,
		app.FollowerConfig{
			StreamID:      streamID,
			BatchSize:     s.settings.TailBatchSize,
			FlushInterval: s.settings.TailFlushInterval,
		},
	)

	log.Info().
		Str("source", filepath.Base(path)).
		Str("stream", streamID).
		Int("batch_size", s.settings.TailBatchSize).
		Msg("polystream tail started")

	if err := follower.Run(s.ctx); err != nil {
		return err
	}

	log.Info().Msg("Shutting down...")
	s.reporter.Section("Stream Statistics")
	sp.ReportStats(context.WithoutCancel(s.ctx))
	return s.reporter.Flush()
}

// tailStreamID is the first configured event stream, so its criteria
// apply to followed lines.
func tailStreamID(settings app.Settings) string {
	for _, sc := range settings.Streams {
		if kind, err := domain.ParseStreamKind(sc.Kind); err == nil && kind == domain.StreamKindEvent {
			return sc.ID
		}
	}
	return "EVENT_001"
}
