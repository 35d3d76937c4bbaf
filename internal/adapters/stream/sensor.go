package stream

import (
	"github.com/xoelrdgz/polystream/internal/domain"
)

const (
	DefaultSensorThreshold = 30.0

	CriteriaHigh     = "high"
	CriteriaStandard = "standard"
)

// SensorStream averages environmental readings.
type SensorStream struct {
	base
	threshold float64
}

func NewSensorStream(id string, threshold float64) *SensorStream {
	s := &SensorStream{threshold: threshold}
	s.id = id
	s.typeLabel = "Environmental Data"
	s.kind = domain.StreamKindSensor
	return s
}

func (s *SensorStream) ProcessBatch(batch domain.Batch) domain.BatchResult {
	nums, err := batch.Numbers()
	if err != nil {
		return s.failed(len(batch), "sensor", err)
	}
	if len(nums) == 0 {
		return s.failed(0, "sensor", domain.ErrEmptyBatch)
	}

	var sum float64
	for _, n := range nums {
		sum += n
	}
	return s.succeeded(len(nums), "%d readings processed, avg: %.2f", len(nums), sum/float64(len(nums)))
}

// FilterData keeps readings above the threshold for "high" and at or below
// it for "standard".
func (s *SensorStream) FilterData(batch domain.Batch, criteria string) (domain.Batch, error) {
	switch criteria {
	case CriteriaHigh:
		return keepNumbers(batch, func(v float64) bool { return v > s.threshold })
	case CriteriaStandard:
		return keepNumbers(batch, func(v float64) bool { return v <= s.threshold })
	default:
		return s.base.FilterData(batch, criteria)
	}
}
