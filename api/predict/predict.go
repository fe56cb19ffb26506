package predict

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/core/history"
	"github.com/kilianp07/evroute/core/prediction"
)

type slotRequest struct {
	StationID json.RawMessage `json:"stationId"`
	prediction.SlotInput
}

type slotResponse struct {
	StationID json.RawMessage `json:"stationId,omitempty"`
	prediction.SlotPrediction
}

// slotMetaKeys are the inputs kept with a slot record.
var slotMetaKeys = []string{"portsTotal", "portsBusy", "powerKw", "timeOfDay", "dayOfWeek"}

func (h *Handler) slot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	raw, err := api.DecodeBody(r, &req)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	res := prediction.PredictSlot(req.SlotInput, h.clock)
	h.store.Record(history.Entry{
		StationID:      stationKey(req.StationID),
		Type:           history.TypeSlot,
		PredictedValue: ptr(res.PredictedOccupancy),
		Meta:           pick(body, slotMetaKeys...),
	})
	h.respond(w, slotResponse{StationID: req.StationID, SlotPrediction: res})
}

type energyRequest struct {
	StationID json.RawMessage `json:"stationId"`
	prediction.EnergyInput
}

func (h *Handler) energy(w http.ResponseWriter, r *http.Request) {
	var req energyRequest
	raw, err := api.DecodeBody(r, &req)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	res := prediction.PredictEnergy(req.EnergyInput)
	h.store.Record(history.Entry{
		StationID:      stationKey(req.StationID),
		Type:           history.TypeEnergy,
		PredictedValue: ptr(res.PredictedRemainingSoC),
		Meta:           body,
	})
	h.respond(w, res)
}

type routeRequest struct {
	Candidates  json.RawMessage        `json:"candidates"`
	Preferences prediction.Preferences `json:"preferences"`
}

type routeResponse struct {
	BestRoute *prediction.ScoredRoute  `json:"bestRoute"`
	Routes    []prediction.ScoredRoute `json:"routes"`
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	raw, err := api.DecodeBody(r, &req)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	candidates, err := decodeCandidates(req.Candidates)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid route candidates")
		return
	}

	scored := prediction.ScoreRoutes(candidates, req.Preferences)
	resp := routeResponse{Routes: scored}
	if len(scored) > 0 {
		best := scored[0]
		resp.BestRoute = &best

		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		h.store.Record(history.Entry{
			Type:           history.TypeRoute,
			PredictedValue: ptr(best.Score),
			Meta:           pick(body, "preferences"),
		})
	}
	h.respond(w, resp)
}

// decodeCandidates accepts only a JSON array; any other value means no
// candidates.
func decodeCandidates(raw json.RawMessage) ([]prediction.Route, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}
	var out []prediction.Route
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
