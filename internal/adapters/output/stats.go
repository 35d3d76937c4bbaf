package output

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// StatsSource is what the stats endpoint reports on.
type StatsSource interface {
	Stats() []domain.StreamStats
	Summary() domain.RunSummary
}

type StatsResponse struct {
	Streams []domain.StreamStats `json:"streams"`
	Summary domain.RunSummary    `json:"summary"`
	Uptime  float64              `json:"uptime_seconds"`
}

// StatsHandler serves stream statistics and the run summary as JSON.
type StatsHandler struct {
	source    StatsSource
	startTime time.Time
}

func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source, startTime: time.Now()}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatsResponse{
		Streams: h.source.Stats(),
		Summary: h.source.Summary(),
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	writeJSON(w, resp)
}

// RecentHandler serves the newest records of a MemoryReporter. The "n"
// query parameter limits the count.
type RecentHandler struct {
	memory *MemoryReporter
}

func NewRecentHandler(memory *MemoryReporter) *RecentHandler {
	return &RecentHandler{memory: memory}
}

func (h *RecentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "n must be a non-negative integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	writeJSON(w, h.memory.Latest(n))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}
