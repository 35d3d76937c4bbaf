package app

import (
	"sync"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
)

const maxTrackedBatch = 10_000_000

// batchSizes tracks the distribution of batch sizes seen by the orchestrator.
type batchSizes struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func newBatchSizes() *batchSizes {
	return &batchSizes{
		hist: hdrhistogram.New(1, maxTrackedBatch, 3),
	}
}

func (b *batchSizes) Record(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hist.RecordValue(int64(n)); err != nil {
		log.Debug().Err(err).Int("size", n).Msg("Batch size outside tracked range")
	}
}

func (b *batchSizes) Fill(s *domain.RunSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hist.TotalCount() == 0 {
		return
	}
	s.BatchSizeP50 = b.hist.ValueAtQuantile(50)
	s.BatchSizeP99 = b.hist.ValueAtQuantile(99)
	s.BatchSizeMax = b.hist.Max()
	s.BatchSizeMean = b.hist.Mean()
}
