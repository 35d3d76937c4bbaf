package output

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xoelrdgz/polystream/internal/domain"
)

type fixedStats struct{}

func (fixedStats) Stats() []domain.StreamStats {
	return []domain.StreamStats{{StreamID: "SENSOR_001", ProcessedCount: 3, Type: "Environmental Data"}}
}

func (fixedStats) Summary() domain.RunSummary {
	return domain.RunSummary{Streams: 1, Batches: 1, ItemsProcessed: 3}
}

func TestPrometheusMetrics_Observers(t *testing.T) {
	run := domain.NewRunMetrics()
	m := NewPrometheusMetrics("", run)

	ok := domain.NewBatchResult("SENSOR_001", 3, "")
	failed := domain.FailedBatchResult("SENSOR_001", 0, "", domain.ErrEmptyBatch)
	run.RecordBatch(ok)
	m.OnBatch(ok)
	m.OnBatch(failed)

	m.OnFilter(domain.FilterResult{StreamID: "SENSOR_001", Criteria: "high", Kept: domain.Batch{50}})
	m.OnFilter(domain.FilterResult{StreamID: "TRANS_001", Kept: domain.Batch{1, 2}})
	m.OnFilter(domain.FilterResult{StreamID: "EVENT_001", Criteria: "error", Kept: domain.Batch{"error a", "error b"}})
	m.OnFilter(domain.FilterResult{StreamID: "EVENT_001", Criteria: "error", Err: errors.New("x")})

	m.OnProcessor(domain.ProcessorOutcome{Processor: "text", Valid: true})
	m.OnProcessor(domain.ProcessorOutcome{Processor: "text"})
	m.OnProcessor(domain.ProcessorOutcome{Processor: "numeric", Valid: true, Err: domain.ErrEmptyBatch})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("SENSOR_001", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("SENSOR_001", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.streamItems.WithLabelValues("SENSOR_001")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.itemsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filteredItems.WithLabelValues("SENSOR_001", "high")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.filteredItems.WithLabelValues("TRANS_001", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.filteredItems.WithLabelValues("EVENT_001", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filterErrors.WithLabelValues("EVENT_001")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.filterErrors.WithLabelValues("SENSOR_001")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processorResults.WithLabelValues("text", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processorResults.WithLabelValues("text", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processorResults.WithLabelValues("numeric", "failed")))
}

func TestPrometheusMetrics_IndependentRegistries(t *testing.T) {
	a := NewPrometheusMetrics("polystream", nil)
	b := NewPrometheusMetrics("polystream", nil)
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestPrometheusMetrics_Server(t *testing.T) {
	m := NewPrometheusMetrics("", nil)
	m.OnBatch(domain.NewBatchResult("SENSOR_001", 3, ""))

	mem := NewMemoryReporter(10)
	require.NoError(t, mem.ReportBatch(context.Background(), domain.NewBatchResult("SENSOR_001", 3, "")))

	cfg := DefaultMetricsConfig()
	cfg.Port = "127.0.0.1:0"
	require.NoError(t, m.StartServer(cfg, fixedStats{}, map[string]http.Handler{"/recent": NewRecentHandler(mem)}))
	defer m.StopServer(context.Background())

	assert.Error(t, m.StartServer(cfg, nil, nil))

	base := "http://" + m.Addr()

	body := get(t, base+"/metrics", http.StatusOK)
	assert.Contains(t, body, `polystream_batches_total{outcome="ok",stream="SENSOR_001"} 1`)

	body = get(t, base+"/stats", http.StatusOK)
	assert.Contains(t, body, `"stream_id":"SENSOR_001"`)
	assert.Contains(t, body, `"items_processed":3`)

	body = get(t, base+"/recent?n=1", http.StatusOK)
	assert.Contains(t, body, `"kind":"batch"`)

	get(t, base+"/recent?n=x", http.StatusBadRequest)

	require.NoError(t, m.StopServer(context.Background()))
	assert.Equal(t, "", m.Addr())
	require.NoError(t, m.StopServer(context.Background()))
}

func get(t *testing.T, url string, want int) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, want, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}
