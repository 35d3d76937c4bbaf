package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/xoelrdgz/polystream/internal/adapters/stream"
	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

type StreamConfig struct {
	ID   string `mapstructure:"id"`
	Kind string `mapstructure:"kind"`
}

type CriteriaConfig struct {
	Stream   string `mapstructure:"stream"`
	Criteria string `mapstructure:"criteria"`
}

// Settings is the validated, typed view of the configuration.
type Settings struct {
	Streams         []StreamConfig
	Criteria        map[string]string
	SensorThreshold float64
	ErrorMarkers    []string
	LogMaxMessage   int

	TailBatchSize     int
	TailFlushInterval time.Duration

	DemoRate      int
	DemoBatches   int
	DemoBatchSize int
}

// SetDefaults registers the default configuration on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("streams", []map[string]any{
		{"id": "SENSOR_001", "kind": "sensor"},
		{"id": "TRANS_001", "kind": "transaction"},
		{"id": "EVENT_001", "kind": "event"},
	})
	v.SetDefault("criteria", []map[string]any{
		{"stream": "SENSOR_001", "criteria": "high"},
		{"stream": "TRANS_001", "criteria": "negative"},
		{"stream": "EVENT_001", "criteria": "error"},
	})
	v.SetDefault("filters.sensor.threshold", stream.DefaultSensorThreshold)
	v.SetDefault("filters.event.markers", []string{stream.DefaultErrorMarker})
	v.SetDefault("processors.log.max_message", 120)
	v.SetDefault("output.json", false)
	v.SetDefault("output.metrics.enabled", false)
	v.SetDefault("output.metrics.port", ":9090")
	v.SetDefault("tail.batch_size", 100)
	v.SetDefault("tail.flush_interval", "5s")
	v.SetDefault("tail.from_start", false)
	v.SetDefault("demo.rate", 10)
	v.SetDefault("demo.batches", 5)
	v.SetDefault("demo.batch_size", 5)
}

// LoadSettings decodes and validates the configuration held by v.
func LoadSettings(v *viper.Viper) (Settings, error) {
	var streams []StreamConfig
	if err := v.UnmarshalKey("streams", &streams); err != nil {
		return Settings{}, fmt.Errorf("decode streams: %w", err)
	}

	var criteria []CriteriaConfig
	if err := v.UnmarshalKey("criteria", &criteria); err != nil {
		return Settings{}, fmt.Errorf("decode criteria: %w", err)
	}

	s := Settings{
		Streams:           streams,
		Criteria:          make(map[string]string, len(criteria)),
		SensorThreshold:   v.GetFloat64("filters.sensor.threshold"),
		ErrorMarkers:      v.GetStringSlice("filters.event.markers"),
		LogMaxMessage:     v.GetInt("processors.log.max_message"),
		TailBatchSize:     v.GetInt("tail.batch_size"),
		TailFlushInterval: v.GetDuration("tail.flush_interval"),
		DemoRate:          v.GetInt("demo.rate"),
		DemoBatches:       v.GetInt("demo.batches"),
		DemoBatchSize:     v.GetInt("demo.batch_size"),
	}
	for _, c := range criteria {
		s.Criteria[c.Stream] = c.Criteria
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if len(s.Streams) == 0 {
		return &ConfigValidationError{Field: "streams", Value: 0, Reason: "at least one stream is required"}
	}

	seen := make(map[string]bool, len(s.Streams))
	for _, sc := range s.Streams {
		if sc.ID == "" {
			return &ConfigValidationError{Field: "streams.id", Value: sc.ID, Reason: "must not be empty"}
		}
		if seen[sc.ID] {
			return &ConfigValidationError{Field: "streams.id", Value: sc.ID, Reason: "must be unique"}
		}
		seen[sc.ID] = true
		if _, err := domain.ParseStreamKind(sc.Kind); err != nil {
			return &ConfigValidationError{Field: "streams.kind", Value: sc.Kind, Reason: "must be sensor, transaction or event"}
		}
	}

	for id := range s.Criteria {
		if !seen[id] {
			return &ConfigValidationError{Field: "criteria.stream", Value: id, Reason: "does not name a configured stream"}
		}
	}
	for i, m := range s.ErrorMarkers {
		if m == "" {
			return &ConfigValidationError{Field: "filters.event.markers", Value: i, Reason: "must not contain an empty marker"}
		}
	}

	if s.LogMaxMessage < 0 {
		return &ConfigValidationError{Field: "processors.log.max_message", Value: s.LogMaxMessage, Reason: "must not be negative"}
	}
	if s.TailBatchSize < 1 || s.TailBatchSize > 1_000_000 {
		return &ConfigValidationError{Field: "tail.batch_size", Value: s.TailBatchSize, Reason: "must be between 1 and 1M"}
	}
	if s.TailFlushInterval <= 0 {
		return &ConfigValidationError{Field: "tail.flush_interval", Value: s.TailFlushInterval, Reason: "must be positive"}
	}
	if s.DemoRate < 1 {
		return &ConfigValidationError{Field: "demo.rate", Value: s.DemoRate, Reason: "must be positive"}
	}
	if s.DemoBatches < 0 {
		return &ConfigValidationError{Field: "demo.batches", Value: s.DemoBatches, Reason: "must not be negative"}
	}
	if s.DemoBatchSize < 1 {
		return &ConfigValidationError{Field: "demo.batch_size", Value: s.DemoBatchSize, Reason: "must be positive"}
	}
	return nil
}

// StreamOptions derives stream construction options from the settings.
func (s Settings) StreamOptions() stream.Options {
	return stream.Options{
		SensorThreshold: s.SensorThreshold,
		ErrorMarkers:    s.ErrorMarkers,
	}
}

// BuildStreams constructs the configured streams in order.
func BuildStreams(s Settings) ([]ports.DataStream, error) {
	streams := make([]ports.DataStream, 0, len(s.Streams))
	for _, sc := range s.Streams {
		kind, err := domain.ParseStreamKind(sc.Kind)
		if err != nil {
			return nil, err
		}
		ds, err := stream.New(kind, sc.ID, s.StreamOptions())
		if err != nil {
			return nil, err
		}
		streams = append(streams, ds)
	}
	return streams, nil
}

type ConfigValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s = %v - %s", e.Field, e.Value, e.Reason)
}

// HotReloadConfig keeps the current Settings and swaps them atomically when
// the config file changes. Readers always see a complete, validated value.
type HotReloadConfig struct {
	current atomic.Pointer[Settings]
	v       *viper.Viper

	onReload []func(Settings)
	mu       sync.Mutex
	stopped  atomic.Bool
	stopOnce sync.Once
}

func NewHotReloadConfig(v *viper.Viper, initial Settings) *HotReloadConfig {
	h := &HotReloadConfig{v: v}
	h.current.Store(&initial)
	return h
}

func (h *HotReloadConfig) Current() Settings {
	return *h.current.Load()
}

// Criteria returns the current criteria map. Suitable as the criteria
// source of a LogFollower.
func (h *HotReloadConfig) Criteria() map[string]string {
	return h.Current().Criteria
}

func (h *HotReloadConfig) OnReload(fn func(Settings)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReload = append(h.onReload, fn)
}

func (h *HotReloadConfig) StartWatching(ctx context.Context) {
	h.v.OnConfigChange(func(e fsnotify.Event) {
		if h.stopped.Load() || ctx.Err() != nil {
			return
		}
		log.Info().
			Str("file", e.Name).
			Str("op", e.Op.String()).
			Msg("Config file changed, reloading...")
		h.Reload()
	})

	h.v.WatchConfig()
	log.Info().Str("config", h.v.ConfigFileUsed()).Msg("Hot-reload config watching started")
}

// Reload re-reads the config file. On any error the current settings stay
// in place.
func (h *HotReloadConfig) Reload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.v.ConfigFileUsed() != "" {
		if err := h.v.ReadInConfig(); err != nil {
			log.Error().Err(err).Msg("Failed to re-read config, keeping current configuration")
			return
		}
	}

	next, err := LoadSettings(h.v)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration, rejecting reload")
		return
	}

	h.current.Store(&next)
	for _, fn := range h.onReload {
		fn(next)
	}

	log.Info().
		Int("criteria", len(next.Criteria)).
		Msg("Configuration hot-reloaded successfully")
}

func (h *HotReloadConfig) Stop() {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		log.Info().Msg("Hot-reload config watcher stopped")
	})
}
