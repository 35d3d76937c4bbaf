package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xoelrdgz/polystream/internal/adapters/processor"
	"github.com/xoelrdgz/polystream/internal/adapters/stream"
	"github.com/xoelrdgz/polystream/internal/ports"
)

type sliceReader struct {
	lines   []string
	errs    []error
	stopped bool
}

func (r *sliceReader) Start(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string, len(r.lines))
	errs := make(chan error, len(r.errs))
	for _, l := range r.lines {
		lines <- l
	}
	for _, e := range r.errs {
		errs <- e
	}
	close(lines)
	close(errs)
	return lines, errs
}

func (r *sliceReader) Stop() error {
	r.stopped = true
	return nil
}

func newFollowerFixture(t *testing.T, lines []string, batchSize int, criteria map[string]string) (*LogFollower, *StreamProcessor, *recordingReporter, *sliceReader) {
	t.Helper()

	streams, err := NewStreamProcessor([]ports.DataStream{stream.NewEventStream("TAIL")}, nil)
	require.NoError(t, err)
	rep := &recordingReporter{}
	streams.AddReporter(rep)

	runner := NewProcessorRunner(nil)
	runner.AddReporter(rep)

	reader := &sliceReader{lines: lines, errs: []error{errors.New("transient read error")}}
	f := NewLogFollower(reader, processor.NewLogProcessor(processor.DefaultLogProcessorConfig()), runner, streams,
		func() map[string]string { return criteria },
		FollowerConfig{StreamID: "TAIL", BatchSize: batchSize, FlushInterval: time.Hour})
	return f, streams, rep, reader
}

func TestLogFollower_BatchesLines(t *testing.T) {
	lines := []string{
		"INFO: service started",
		"ERROR: connection refused",
		"plain line",
		"INFO: request served",
		"ERROR: disk full",
	}
	f, streams, rep, reader := newFollowerFixture(t, lines, 2, map[string]string{"TAIL": "info"})

	require.NoError(t, f.Run(context.Background()))

	assert.True(t, reader.stopped)
	assert.Len(t, rep.outcomes, 5)
	assert.False(t, rep.outcomes[2].Valid)

	// 5 lines with batch size 2: two full batches plus the final partial one.
	assert.Equal(t, 3, rep.batchCount())
	assert.Equal(t, 3, rep.filterCount())

	s, ok := streams.Stream("TAIL")
	require.True(t, ok)
	assert.Equal(t, int64(5), s.GetStats().ProcessedCount)
}

func TestLogFollower_CriteriaConsultedPerFlush(t *testing.T) {
	f, _, rep, _ := newFollowerFixture(t, []string{"ERROR: x", "INFO: y"}, 10, map[string]string{"TAIL": "info"})

	require.NoError(t, f.Run(context.Background()))

	require.Equal(t, 1, rep.filterCount())
	assert.Len(t, rep.filters[0].Kept, 2, "event matching is case-sensitive on \"error\"")
	assert.Equal(t, "info", rep.filters[0].Criteria)
}

func TestLogFollower_CancelFlushesPending(t *testing.T) {
	streams, err := NewStreamProcessor([]ports.DataStream{stream.NewEventStream("TAIL")}, nil)
	require.NoError(t, err)

	lines := make(chan string, 1)
	reader := &chanReader{lines: lines}
	f := NewLogFollower(reader, processor.NewLogProcessor(processor.DefaultLogProcessorConfig()),
		NewProcessorRunner(nil), streams, nil,
		FollowerConfig{StreamID: "TAIL", BatchSize: 100, FlushInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	lines <- "INFO: one"
	require.Eventually(t, func() bool { return len(lines) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not stop")
	}

	s, _ := streams.Stream("TAIL")
	assert.Equal(t, int64(1), s.GetStats().ProcessedCount)
}

func TestLogFollower_CancelDrainsBufferedLines(t *testing.T) {
	streams, err := NewStreamProcessor([]ports.DataStream{stream.NewEventStream("TAIL")}, nil)
	require.NoError(t, err)
	rep := &recordingReporter{}
	streams.AddReporter(rep)

	lines := make(chan string, 5)
	for _, l := range []string{"INFO: a", "ERROR: b", "INFO: c", "plain", "WARNING: d"} {
		lines <- l
	}
	reader := &chanReader{lines: lines}
	f := NewLogFollower(reader, processor.NewLogProcessor(processor.DefaultLogProcessorConfig()),
		NewProcessorRunner(nil), streams, nil,
		FollowerConfig{StreamID: "TAIL", BatchSize: 100, FlushInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.Run(ctx))

	assert.Empty(t, lines)
	s, _ := streams.Stream("TAIL")
	assert.Equal(t, int64(5), s.GetStats().ProcessedCount)
	assert.Equal(t, 1, rep.batchCount())
}

type chanReader struct {
	lines chan string
}

func (r *chanReader) Start(ctx context.Context) (<-chan string, <-chan error) {
	return r.lines, nil
}

func (r *chanReader) Stop() error { return nil }
