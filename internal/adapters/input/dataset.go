package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

var _ ports.BatchSource = (*Dataset)(nil)

// DatasetEntry is one stream of a dataset file: which stream, what kind,
// the batch to feed it and the criteria to filter it with.
type DatasetEntry struct {
	ID       string `yaml:"id"`
	Kind     string `yaml:"kind"`
	Batch    []any  `yaml:"batch"`
	Criteria string `yaml:"criteria,omitempty"`
}

// Dataset is a one-shot BatchSource: Next returns the batches once and
// io.EOF afterwards.
type Dataset struct {
	Streams []DatasetEntry `yaml:"streams"`

	consumed bool
}

// DefaultDataset returns the built-in demo data.
func DefaultDataset() *Dataset {
	return &Dataset{Streams: []DatasetEntry{
		{ID: "SENSOR_001", Kind: "sensor", Batch: []any{22.5, 50, 21.8}, Criteria: "high"},
		{ID: "TRANS_001", Kind: "transaction", Batch: []any{100, 150, -75}, Criteria: "negative"},
		{ID: "EVENT_001", Kind: "event", Batch: []any{"login", "error", "logout"}, Criteria: "error"},
	}}
}

func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ParseDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func ParseDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty dataset: %w", domain.ErrInvalidData)
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *Dataset) validate() error {
	if len(d.Streams) == 0 {
		return fmt.Errorf("dataset has no streams: %w", domain.ErrInvalidData)
	}
	seen := make(map[string]bool, len(d.Streams))
	for i, e := range d.Streams {
		if e.ID == "" {
			return fmt.Errorf("stream %d: missing id: %w", i, domain.ErrInvalidData)
		}
		if seen[e.ID] {
			return fmt.Errorf("stream %q: %w", e.ID, domain.ErrDuplicateStream)
		}
		seen[e.ID] = true
		if _, err := domain.ParseStreamKind(e.Kind); err != nil {
			return fmt.Errorf("stream %q: %w", e.ID, err)
		}
	}
	return nil
}

func (d *Dataset) Next(ctx context.Context) (map[string]domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.consumed {
		return nil, io.EOF
	}
	d.consumed = true

	out := make(map[string]domain.Batch, len(d.Streams))
	for _, e := range d.Streams {
		out[e.ID] = domain.Batch(e.Batch).Clone()
	}
	return out, nil
}

func (d *Dataset) Criteria() map[string]string {
	out := make(map[string]string, len(d.Streams))
	for _, e := range d.Streams {
		if e.Criteria != "" {
			out[e.ID] = e.Criteria
		}
	}
	return out
}

// Kinds maps each stream identifier to its declared kind, in file order.
func (d *Dataset) Kinds() []StreamKindEntry {
	out := make([]StreamKindEntry, 0, len(d.Streams))
	for _, e := range d.Streams {
		kind, _ := domain.ParseStreamKind(e.Kind)
		out = append(out, StreamKindEntry{ID: e.ID, Kind: kind})
	}
	return out
}

type StreamKindEntry struct {
	ID   string
	Kind domain.StreamKind
}
