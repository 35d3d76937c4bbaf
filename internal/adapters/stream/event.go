package stream

import (
	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/pkg/ahocorasick"
)

const (
	DefaultErrorMarker = "error"

	CriteriaError = "error"
	CriteriaInfo  = "info"
)

// EventStream counts error events. Non-string items are counted as events
// but never as errors, so aggregation cannot fail.
type EventStream struct {
	base
	errors *ahocorasick.Matcher
}

// NewEventStream builds an event stream. An event is an error when it
// contains any of markers; with no markers, "error" is used.
func NewEventStream(id string, markers ...string) *EventStream {
	if len(markers) == 0 {
		markers = []string{DefaultErrorMarker}
	}
	s := &EventStream{errors: ahocorasick.New(markers)}
	s.id = id
	s.typeLabel = "Event Stream"
	s.kind = domain.StreamKindEvent
	return s
}

func (s *EventStream) isError(event string) bool {
	return s.errors.Contains(event)
}

func (s *EventStream) ProcessBatch(batch domain.Batch) domain.BatchResult {
	errCount := 0
	for _, v := range batch {
		if event, ok := v.(string); ok && s.isError(event) {
			errCount++
		}
	}
	return s.succeeded(len(batch), "%d events processed, %d error(s)", len(batch), errCount)
}

func (s *EventStream) FilterData(batch domain.Batch, criteria string) (domain.Batch, error) {
	switch criteria {
	case CriteriaError:
		return keepStrings(batch, s.isError)
	case CriteriaInfo:
		return keepStrings(batch, func(e string) bool { return !s.isError(e) })
	default:
		return s.base.FilterData(batch, criteria)
	}
}
