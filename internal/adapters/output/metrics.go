package output

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

var _ ports.ResultObserver = (*PrometheusMetrics)(nil)

// PrometheusMetrics exports orchestrator results. Each instance owns its
// registry so several can coexist in one process.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	itemsProcessed   prometheus.CounterFunc
	batches          *prometheus.CounterVec
	streamItems      *prometheus.CounterVec
	filteredItems    *prometheus.CounterVec
	filterErrors     *prometheus.CounterVec
	processorResults *prometheus.CounterVec
	batchSize        prometheus.Histogram
	memoryUsage      prometheus.GaugeFunc

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

type MetricsConfig struct {
	Port      string
	Path      string
	StatsPath string
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Port:      ":9090",
		Path:      "/metrics",
		StatsPath: "/stats",
	}
}

func NewPrometheusMetrics(namespace string, runMetrics *domain.RunMetrics) *PrometheusMetrics {
	if namespace == "" {
		namespace = "polystream"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &PrometheusMetrics{registry: reg}

	m.itemsProcessed = factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_processed_total",
		Help:      "Total number of items aggregated by successful batches",
	}, func() float64 {
		if runMetrics != nil {
			return float64(runMetrics.ItemsProcessed())
		}
		return 0
	})

	m.batches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Batches processed by stream and outcome",
	}, []string{"stream", "outcome"})

	m.streamItems = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_items_total",
		Help:      "Items aggregated per stream",
	}, []string{"stream"})

	m.filteredItems = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filtered_items_total",
		Help:      "Items kept by filtering, by stream and criteria",
	}, []string{"stream", "criteria"})

	m.filterErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_errors_total",
		Help:      "Filter calls that failed, by stream",
	}, []string{"stream"})

	m.processorResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "processor_results_total",
		Help:      "Processor runs by processor and outcome",
	}, []string{"processor", "outcome"})

	m.batchSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_size",
		Help:      "Number of items per processed batch",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	m.memoryUsage = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "memory_bytes",
		Help:      "Current memory usage in bytes",
	}, func() float64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.Alloc)
	})

	return m
}

func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) OnBatch(r domain.BatchResult) {
	outcome := "ok"
	if !r.OK() {
		outcome = "failed"
	}
	m.batches.WithLabelValues(r.StreamID, outcome).Inc()
	m.batchSize.Observe(float64(r.Items))
	if r.OK() {
		m.streamItems.WithLabelValues(r.StreamID).Add(float64(r.Items))
	}
}

func (m *PrometheusMetrics) OnFilter(r domain.FilterResult) {
	if !r.OK() {
		m.filterErrors.WithLabelValues(r.StreamID).Inc()
		return
	}
	criteria := r.Criteria
	if criteria == "" {
		criteria = "none"
	}
	m.filteredItems.WithLabelValues(r.StreamID, criteria).Add(float64(len(r.Kept)))
}

func (m *PrometheusMetrics) OnProcessor(o domain.ProcessorOutcome) {
	outcome := "ok"
	switch {
	case !o.Valid:
		outcome = "rejected"
	case o.Err != nil:
		outcome = "failed"
	}
	m.processorResults.WithLabelValues(o.Processor, outcome).Inc()
}

// StartServer serves the registry on config.Path and, when stats is not
// nil, the JSON stats on config.StatsPath. extra handlers are mounted as
// given.
func (m *PrometheusMetrics) StartServer(config MetricsConfig, stats StatsSource, extra map[string]http.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return errors.New("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
	if stats != nil && config.StatsPath != "" {
		mux.Handle(config.StatsPath, NewStatsHandler(stats))
	}
	for path, h := range extra {
		mux.Handle(path, h)
	}

	ln, err := net.Listen("tcp", config.Port)
	if err != nil {
		return err
	}
	m.listener = ln

	m.server = &http.Server{
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := m.server
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("path", config.Path).Msg("Starting Prometheus metrics server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

// Addr is the bound listen address, or "" when the server is not running.
func (m *PrometheusMetrics) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *PrometheusMetrics) StopServer(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server == nil {
		return nil
	}
	err := m.server.Shutdown(ctx)
	m.server = nil
	m.listener = nil
	return err
}
