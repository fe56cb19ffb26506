// Package predict exposes the heuristic predictors and the prediction
// history over HTTP under /api/predict.
package predict

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/history"
	"github.com/kilianp07/evroute/core/logger"
	infralogger "github.com/kilianp07/evroute/infra/logger"
)

// Prefix is the mount point of every route in this package.
const Prefix = "/api/predict"

// Handler serves the prediction routes.
type Handler struct {
	store *history.Store
	clock clock.Clock
	log   logger.Logger
}

// NewHandler wires the handler to store. Nil clock and logger fall back to
// the system clock and a no-op logger.
func NewHandler(store *history.Store, clk clock.Clock, log logger.Logger) *Handler {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Handler{store: store, clock: clk, log: log}
}

// Register mounts the routes on mux, each wrapped by mw in order.
func (h *Handler) Register(mux *http.ServeMux, mw ...func(http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"POST " + Prefix + "/slot":                h.slot,
		"POST " + Prefix + "/energy":              h.energy,
		"POST " + Prefix + "/route":               h.route,
		"GET " + Prefix + "/history":              h.history,
		"POST " + Prefix + "/actual":              h.actual,
		"GET " + Prefix + "/accuracy":             h.accuracy,
		"GET " + Prefix + "/usage-patterns":       h.usagePatterns,
		"GET " + Prefix + "/usage-patterns/chart": h.usageChart,
	}
	for pattern, fn := range routes {
		var handler http.Handler = fn
		for i := len(mw) - 1; i >= 0; i-- {
			handler = mw[i](handler)
		}
		mux.Handle(pattern, handler)
	}
}

func (h *Handler) respond(w http.ResponseWriter, v any) {
	if err := api.WriteJSON(w, http.StatusOK, v); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}

// stationKey turns the raw stationId value into the string the history is
// keyed by. Strings are unquoted, numbers kept verbatim, null and "" drop it.
func stationKey(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	if raw[0] == '{' || raw[0] == '[' || bytes.Equal(raw, []byte("false")) {
		return ""
	}
	return string(raw)
}

// pick copies the listed keys of body that are present.
func pick(body map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := body[k]; ok {
			out[k] = v
		}
	}
	return out
}

func queryTimeRange(r *http.Request) history.TimeRange {
	if v := r.URL.Query().Get("timeRange"); v != "" {
		return history.TimeRange(v)
	}
	return history.RangeWeek
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return history.DefaultLimit
	}
	return n
}

func ptr[T any](v T) *T { return &v }
