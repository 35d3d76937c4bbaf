package domain

import (
	"fmt"
	"strings"
)

type StreamKind string

const (
	StreamKindSensor      StreamKind = "sensor"
	StreamKindTransaction StreamKind = "transaction"
	StreamKindEvent       StreamKind = "event"
)

func ParseStreamKind(s string) (StreamKind, error) {
	switch kind := StreamKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case StreamKindSensor, StreamKindTransaction, StreamKindEvent:
		return kind, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownStreamKind)
	}
}

// StreamStats is the externally visible state of a stream.
type StreamStats struct {
	StreamID       string `json:"stream_id"`
	ProcessedCount int64  `json:"processed_count"`
	Type           string `json:"type,omitempty"`
}

func (s StreamStats) String() string {
	return fmt.Sprintf("{stream_id: %s, processed_count: %d}", s.StreamID, s.ProcessedCount)
}
