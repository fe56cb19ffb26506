package predict

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/core/history"
	"github.com/kilianp07/evroute/pkg/export"
)

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	records := h.store.Query(history.Filter{
		StationID: r.URL.Query().Get("stationId"),
		Limit:     queryLimit(r),
		TimeRange: queryTimeRange(r),
	})
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="prediction-history.csv"`)
		if err := export.WriteCSV(w, records); err != nil {
			h.log.Errorf("write history csv: %v", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := export.WriteJSON(w, records); err != nil {
		h.log.Errorf("write history: %v", err)
	}
}

type actualRequest struct {
	ID          json.RawMessage `json:"id"`
	ActualValue json.RawMessage `json:"actualValue"`
}

func (h *Handler) actual(w http.ResponseWriter, r *http.Request) {
	var req actualRequest
	if _, err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, idOK := coerceNumber(req.ID)
	actual, actualOK := coerceNumber(req.ActualValue)
	if !idOK || id == 0 || !actualOK {
		api.WriteError(w, http.StatusBadRequest, "id and numeric actualValue are required")
		return
	}
	if id != math.Trunc(id) || math.Abs(id) > math.MaxInt64 {
		api.WriteError(w, http.StatusNotFound, "Prediction not found")
		return
	}

	rec, err := h.store.SetActual(int64(id), actual)
	if errors.Is(err, history.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "Prediction not found")
		return
	}
	if err != nil {
		h.log.Errorf("set actual for %d: %v", int64(id), err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to record actual outcome")
		return
	}
	h.respond(w, rec)
}

// coerceNumber accepts a JSON number or a string holding one. The result
// must be finite.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (h *Handler) accuracy(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.store.Accuracy(r.URL.Query().Get("stationId"), queryTimeRange(r)))
}

func (h *Handler) usagePatterns(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.store.UsagePatterns(queryTimeRange(r)))
}
