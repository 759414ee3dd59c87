package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/arkilian/typecast/internal/cache"
	"github.com/arkilian/typecast/internal/observability"
)

// UncoveredPair is a (source root, target root) pair no rule covers.
type UncoveredPair struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Frequency int64     `json:"frequency"`
	LastSeen  time.Time `json:"last_seen"`
	Example   string    `json:"example"`
}

// CacheStatsJSON reports the verdict cache counters.
type CacheStatsJSON struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Entries   int     `json:"entries"`
	Capacity  int     `json:"capacity"`
	HitRate   float64 `json:"hit_rate"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Total     int64            `json:"total"`
	Implicit  int64            `json:"implicit"`
	Explicit  int64            `json:"explicit"`
	Rules     map[string]int64 `json:"rules"`
	Uncovered []UncoveredPair  `json:"uncovered"`
	Cache     *CacheStatsJSON  `json:"cache,omitempty"`
	RequestID string           `json:"request_id"`
}

const defaultTopUncovered = 20

// StatsHandler handles GET /v1/stats.
type StatsHandler struct {
	stats *observability.CastStats
	cache *cache.VerdictCache
}

// NewStatsHandler creates a new stats handler. verdicts may be nil when the
// cache is disabled.
func NewStatsHandler(stats *observability.CastStats, verdicts *cache.VerdictCache) *StatsHandler {
	return &StatsHandler{stats: stats, cache: verdicts}
}

// ServeHTTP handles the stats HTTP request. The optional "top" parameter
// limits the uncovered pairs returned.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	top := defaultTopUncovered
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer", requestID)
			return
		}
		top = n
	}

	summary := h.stats.Summary()
	resp := StatsResponse{
		Total:     summary.Total,
		Implicit:  summary.Implicit,
		Explicit:  summary.Explicit,
		Rules:     make(map[string]int64, len(summary.Rules)),
		Uncovered: []UncoveredPair{},
		RequestID: requestID,
	}
	for rule, n := range summary.Rules {
		resp.Rules[string(rule)] = n
	}
	for _, p := range h.stats.TopUncovered(top) {
		resp.Uncovered = append(resp.Uncovered, UncoveredPair{
			Source:    p.Source.String(),
			Target:    p.Target.String(),
			Frequency: p.Frequency,
			LastSeen:  p.LastSeen,
			Example:   p.Example,
		})
	}

	if h.cache != nil {
		s := h.cache.Stats()
		resp.Cache = &CacheStatsJSON{
			Hits:      s.Hits,
			Misses:    s.Misses,
			Evictions: s.Evictions,
			Entries:   s.Entries,
			Capacity:  s.Capacity,
			HitRate:   h.cache.HitRate(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthHandler returns a health check handler reporting the service mode.
func HealthHandler(service, mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": service,
			"mode":    mode,
		})
	}
}
