package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchResult(t *testing.T) {
	r := NewBatchResult("SENSOR_001", 3, "[SENSOR_001] 3 readings processed, avg: 31.43")

	assert.NotEmpty(t, r.ID)
	assert.True(t, r.OK())
	assert.Equal(t, "SENSOR_001", r.StreamID)
	assert.Equal(t, 3, r.Items)
	assert.Equal(t, r.Summary, r.String())
	assert.False(t, r.Timestamp.IsZero())
}

func TestBatchResultIDsAreUnique(t *testing.T) {
	a := NewBatchResult("x", 0, "")
	b := NewBatchResult("x", 0, "")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFailedBatchResultJSON(t *testing.T) {
	err := fmt.Errorf("average: %w", ErrEmptyBatch)
	r := FailedBatchResult("SENSOR_001", 0, "[SENSOR_001] Invalid sensor data", err)

	data, jerr := json.Marshal(r)
	require.NoError(t, jerr)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, false, parsed["ok"])
	assert.Equal(t, "average: empty batch", parsed["error"])
	assert.Equal(t, "SENSOR_001", parsed["stream_id"])
}

func TestFilterResultJSON(t *testing.T) {
	r := FilterResult{StreamID: "SENSOR_001", Criteria: "high", Input: 3, Kept: Batch{50}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, float64(1), parsed["count"])
	assert.NotContains(t, parsed, "error")
}

func TestRunMetrics(t *testing.T) {
	m := NewRunMetrics()

	m.RecordBatch(NewBatchResult("a", 3, ""))
	m.RecordBatch(FailedBatchResult("b", 2, "", ErrInvalidData))
	m.RecordFilter(FilterResult{Kept: Batch{1, 2}})
	m.RecordProcessor(ProcessorOutcome{Valid: false})

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.Batches)
	assert.Equal(t, int64(1), snap.FailedBatches)
	assert.Equal(t, int64(3), snap.ItemsProcessed)
	assert.Equal(t, int64(2), snap.ItemsKept)
	assert.Equal(t, int64(1), snap.ValidationFailures)
}
