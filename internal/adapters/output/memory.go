package output

import (
	"context"
	"sync"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// MemoryReporter keeps the most recent records in a fixed-size ring
// buffer.
type MemoryReporter struct {
	records []Record
	head    int
	count   int
	max     int
	section string
	mu      sync.RWMutex
}

// NewMemoryReporter keeps up to capacity records (default: 1000 if <= 0).
func NewMemoryReporter(capacity int) *MemoryReporter {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryReporter{
		records: make([]Record, capacity),
		max:     capacity,
	}
}

func (m *MemoryReporter) add(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.Section == "" {
		rec.Section = m.section
	}
	m.records[m.head] = rec
	m.head = (m.head + 1) % m.max
	if m.count < m.max {
		m.count++
	}
	return nil
}

func (m *MemoryReporter) Section(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.section = title
}

func (m *MemoryReporter) ReportProcessor(_ context.Context, o domain.ProcessorOutcome) error {
	return m.add(Record{Kind: "processor", Processor: &o})
}

func (m *MemoryReporter) ReportBatch(_ context.Context, b domain.BatchResult) error {
	return m.add(Record{Kind: "batch", Batch: &b})
}

func (m *MemoryReporter) ReportFilter(_ context.Context, f domain.FilterResult) error {
	return m.add(Record{Kind: "filter", Filter: &f})
}

func (m *MemoryReporter) ReportStats(_ context.Context, stats []domain.StreamStats) error {
	return m.add(Record{Kind: "stats", Stats: append([]domain.StreamStats(nil), stats...)})
}

func (m *MemoryReporter) Flush() error { return nil }

func (m *MemoryReporter) Close() error { return nil }

// Records returns all stored records, oldest first.
func (m *MemoryReporter) Records() []Record {
	return m.Latest(0)
}

// Latest returns the n most recent records, oldest first. n <= 0 returns
// everything.
func (m *MemoryReporter) Latest(n int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > m.count {
		n = m.count
	}
	result := make([]Record, n)
	for i := 0; i < n; i++ {
		idx := (m.head - n + i + m.max) % m.max
		result[i] = m.records[idx]
	}
	return result
}

func (m *MemoryReporter) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *MemoryReporter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = 0
	m.count = 0
	clear(m.records)
}
