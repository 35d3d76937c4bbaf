package output

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// Record is one line of JSON output. Exactly one payload field is set.
type Record struct {
	Kind      string                   `json:"kind"`
	Section   string                   `json:"section,omitempty"`
	Processor *domain.ProcessorOutcome `json:"processor,omitempty"`
	Batch     *domain.BatchResult      `json:"batch,omitempty"`
	Filter    *domain.FilterResult     `json:"filter,omitempty"`
	Stats     []domain.StreamStats     `json:"stats,omitempty"`
}

// JSONReporter writes results as JSON lines to a file or stdout.
type JSONReporter struct {
	writer    io.Writer
	bufWriter *bufio.Writer
	file      *os.File
	mu        sync.Mutex
	encoder   *json.Encoder
	section   string
	stopFlush chan struct{}
	closeOnce sync.Once
}

type JSONReporterConfig struct {
	FilePath string // output file; empty with Stdout false discards
	Stdout   bool
	Pretty   bool
	Writer   io.Writer // overrides FilePath and Stdout when set
}

// NewJSONReporter opens the destination and starts the periodic flush.
// Files are opened for append with mode 0600.
func NewJSONReporter(config JSONReporterConfig) (*JSONReporter, error) {
	var writer io.Writer
	var file *os.File

	switch {
	case config.Writer != nil:
		writer = config.Writer
	case config.Stdout:
		writer = os.Stdout
	case config.FilePath != "":
		var err error
		file, err = os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, err
		}
		writer = file
	default:
		writer = io.Discard
	}

	const bufferSize = 64 * 1024
	bufWriter := bufio.NewWriterSize(writer, bufferSize)

	r := &JSONReporter{
		writer:    writer,
		bufWriter: bufWriter,
		file:      file,
		stopFlush: make(chan struct{}),
	}

	r.encoder = json.NewEncoder(bufWriter)
	if config.Pretty {
		r.encoder.SetIndent("", "  ")
	}

	go r.periodicFlush()

	return r, nil
}

func (r *JSONReporter) periodicFlush() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush()
		case <-r.stopFlush:
			return
		}
	}
}

func (r *JSONReporter) encode(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Section == "" {
		rec.Section = r.section
	}
	return r.encoder.Encode(rec)
}

// Section tags subsequent records; it writes nothing itself.
func (r *JSONReporter) Section(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.section = title
}

func (r *JSONReporter) ReportProcessor(_ context.Context, o domain.ProcessorOutcome) error {
	return r.encode(Record{Kind: "processor", Processor: &o})
}

func (r *JSONReporter) ReportBatch(_ context.Context, b domain.BatchResult) error {
	return r.encode(Record{Kind: "batch", Batch: &b})
}

func (r *JSONReporter) ReportFilter(_ context.Context, f domain.FilterResult) error {
	return r.encode(Record{Kind: "filter", Filter: &f})
}

func (r *JSONReporter) ReportStats(_ context.Context, stats []domain.StreamStats) error {
	return r.encode(Record{Kind: "stats", Stats: stats})
}

func (r *JSONReporter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.bufWriter.Flush(); err != nil {
		return err
	}
	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}

// Close stops the periodic flush, flushes and closes the file. Safe to call
// more than once.
func (r *JSONReporter) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stopFlush)

		r.mu.Lock()
		defer r.mu.Unlock()

		if err = r.bufWriter.Flush(); err != nil {
			return
		}
		if r.file != nil {
			if err = r.file.Sync(); err != nil {
				return
			}
			err = r.file.Close()
		}
	})
	return err
}
