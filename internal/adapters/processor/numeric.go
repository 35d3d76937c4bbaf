package processor

import (
	"fmt"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// NumericProcessor summarizes a list of numbers.
type NumericProcessor struct {
	base
}

func NewNumericProcessor() *NumericProcessor {
	return &NumericProcessor{base: base{name: "numeric"}}
}

// Validate accepts any slice whose items are all numbers. An empty slice is
// valid; Process reports it as ErrEmptyBatch.
func (p *NumericProcessor) Validate(data any) bool {
	batch, ok := domain.ToBatch(data)
	if !ok {
		return p.rejected(data, "Not list of numbers")
	}
	if _, err := batch.Numbers(); err != nil {
		return p.rejected(data, "Not list of numbers")
	}
	return p.verified("Numeric data")
}

func (p *NumericProcessor) Process(data any) (string, error) {
	batch, ok := domain.ToBatch(data)
	if !ok {
		return "", fmt.Errorf("numeric processor: %T: %w", data, domain.ErrInvalidData)
	}
	nums, err := batch.Numbers()
	if err != nil {
		return "", fmt.Errorf("numeric processor: %w", err)
	}
	if len(nums) == 0 {
		return "", fmt.Errorf("numeric processor: average: %w", domain.ErrEmptyBatch)
	}

	var sum float64
	for _, n := range nums {
		sum += n
	}
	avg := sum / float64(len(nums))

	return fmt.Sprintf("Processed %d numeric values, sum=%s, avg=%s",
		len(nums), domain.FormatNumber(sum), domain.FormatNumber(avg)), nil
}
