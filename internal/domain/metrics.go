package domain

import (
	"sync/atomic"
	"time"
)

type MetricsSnapshot struct {
	Batches            int64
	FailedBatches      int64
	ItemsProcessed     int64
	FilterPasses       int64
	ItemsKept          int64
	ProcessorRuns      int64
	ValidationFailures int64
	Uptime             time.Duration
	StartTime          time.Time
}

// RunMetrics holds process-wide counters. Safe for concurrent use; the
// metrics server reads them while the driver writes.
type RunMetrics struct {
	batches            atomic.Int64
	failedBatches      atomic.Int64
	itemsProcessed     atomic.Int64
	filterPasses       atomic.Int64
	itemsKept          atomic.Int64
	processorRuns      atomic.Int64
	validationFailures atomic.Int64
	StartTime          time.Time
}

func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		StartTime: time.Now(),
	}
}

func (m *RunMetrics) RecordBatch(r BatchResult) {
	m.batches.Add(1)
	if !r.OK() {
		m.failedBatches.Add(1)
		return
	}
	m.itemsProcessed.Add(int64(r.Items))
}

func (m *RunMetrics) RecordFilter(r FilterResult) {
	m.filterPasses.Add(1)
	m.itemsKept.Add(int64(len(r.Kept)))
}

func (m *RunMetrics) RecordProcessor(o ProcessorOutcome) {
	m.processorRuns.Add(1)
	if !o.Valid {
		m.validationFailures.Add(1)
	}
}

func (m *RunMetrics) ItemsProcessed() int64 {
	return m.itemsProcessed.Load()
}

func (m *RunMetrics) Batches() int64 {
	return m.batches.Load()
}

func (m *RunMetrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Batches:            m.batches.Load(),
		FailedBatches:      m.failedBatches.Load(),
		ItemsProcessed:     m.itemsProcessed.Load(),
		FilterPasses:       m.filterPasses.Load(),
		ItemsKept:          m.itemsKept.Load(),
		ProcessorRuns:      m.processorRuns.Load(),
		ValidationFailures: m.validationFailures.Load(),
		Uptime:             time.Since(m.StartTime),
		StartTime:          m.StartTime,
	}
}

// RunSummary condenses an orchestrator run: counters plus the batch-size
// distribution.
type RunSummary struct {
	Streams        int     `json:"streams"`
	Batches        int64   `json:"batches"`
	FailedBatches  int64   `json:"failed_batches"`
	ItemsProcessed int64   `json:"items_processed"`
	ItemsKept      int64   `json:"items_kept"`
	BatchSizeP50   int64   `json:"batch_size_p50"`
	BatchSizeP99   int64   `json:"batch_size_p99"`
	BatchSizeMax   int64   `json:"batch_size_max"`
	BatchSizeMean  float64 `json:"batch_size_mean"`
}
