package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BatchResult describes the outcome of one ProcessBatch call. Summary is the
// human-readable line; Err is nil when the batch was aggregated.
type BatchResult struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"stream_id"`
	Items     int       `json:"items"`
	Summary   string    `json:"summary"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBatchResult(streamID string, items int, summary string) BatchResult {
	return BatchResult{
		ID:        uuid.NewString(),
		StreamID:  streamID,
		Items:     items,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
}

func FailedBatchResult(streamID string, items int, summary string, err error) BatchResult {
	r := NewBatchResult(streamID, items, summary)
	r.Err = err
	return r
}

func (r BatchResult) OK() bool {
	return r.Err == nil
}

func (r BatchResult) String() string {
	return r.Summary
}

func (r BatchResult) MarshalJSON() ([]byte, error) {
	type plain BatchResult
	out := struct {
		plain
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{plain: plain(r), OK: r.OK()}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// FilterResult describes one FilterData call made by the orchestrator.
type FilterResult struct {
	StreamID string `json:"stream_id"`
	Criteria string `json:"criteria,omitempty"`
	Input    int    `json:"input"`
	Kept     Batch  `json:"kept"`
	Err      error  `json:"-"`
}

func (r FilterResult) OK() bool {
	return r.Err == nil
}

func (r FilterResult) MarshalJSON() ([]byte, error) {
	type plain FilterResult
	out := struct {
		plain
		Count int    `json:"count"`
		Error string `json:"error,omitempty"`
	}{plain: plain(r), Count: len(r.Kept)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// ProcessorOutcome is the result of running one datum through a processor.
type ProcessorOutcome struct {
	Processor string `json:"processor"`
	Valid     bool   `json:"valid"`
	Output    string `json:"output,omitempty"`
	Err       error  `json:"-"`
}

func (o ProcessorOutcome) MarshalJSON() ([]byte, error) {
	type plain ProcessorOutcome
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(o)}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}
