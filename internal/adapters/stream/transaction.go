package stream

import (
	"github.com/xoelrdgz/polystream/internal/domain"
)

const (
	CriteriaPositive = "positive"
	CriteriaNegative = "negative"
)

// TransactionStream sums signed amounts into a net flow. An empty batch is a
// valid batch with zero flow.
type TransactionStream struct {
	base
}

func NewTransactionStream(id string) *TransactionStream {
	s := &TransactionStream{}
	s.id = id
	s.typeLabel = "Transaction Stream"
	s.kind = domain.StreamKindTransaction
	return s
}

func (s *TransactionStream) ProcessBatch(batch domain.Batch) domain.BatchResult {
	nums, err := batch.Numbers()
	if err != nil {
		return s.failed(len(batch), "transaction", err)
	}

	var total float64
	for _, n := range nums {
		total += n
	}
	return s.succeeded(len(nums), "%d operations processed, net flow: %s", len(nums), domain.FormatNumber(total))
}

func (s *TransactionStream) FilterData(batch domain.Batch, criteria string) (domain.Batch, error) {
	switch criteria {
	case CriteriaPositive:
		return keepNumbers(batch, func(v float64) bool { return v >= 0 })
	case CriteriaNegative:
		return keepNumbers(batch, func(v float64) bool { return v < 0 })
	default:
		return s.base.FilterData(batch, criteria)
	}
}
