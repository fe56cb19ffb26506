package prediction

import (
	"encoding/json"
	"maps"
	"math"
	"sort"
)

// Default route scoring weights.
const (
	DefaultWeightTime       = 0.4
	DefaultWeightDistance   = 0.2
	DefaultWeightWait       = 0.25
	DefaultWeightPower      = 0.1
	DefaultWeightCongestion = 0.05
)

// RouteStation is a charging stop along a candidate route.
type RouteStation struct {
	ID                    any     `json:"id,omitempty"`
	Name                  string  `json:"name,omitempty"`
	PowerKW               float64 `json:"powerKw"`
	CongestionProbability float64 `json:"congestionProbability"`
	IsCompatible          *bool   `json:"isCompatible,omitempty"`
	PredictedWaitMinutes  float64 `json:"predictedWaitMinutes"`
}

// Route is a candidate produced by the maps provider. A Route decoded from
// JSON keeps the object it was read from, so provider fields the scorer does
// not know about (polylines, station addresses) are written back unchanged.
type Route struct {
	ID                    any            `json:"id,omitempty"`
	Name                  string         `json:"name,omitempty"`
	TotalDistanceKm       float64        `json:"totalDistanceKm"`
	EstimatedDriveMinutes float64        `json:"estimatedDriveMinutes"`
	Stations              []RouteStation `json:"stations"`

	raw map[string]json.RawMessage
}

// routeFields is Route without its JSON methods.
type routeFields Route

func (r *Route) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var f routeFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	*r = Route(f)
	r.raw = raw
	return nil
}

func (r Route) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return json.Marshal(r.raw)
	}
	return json.Marshal(routeFields(r))
}

// ScoredRoute is a Route annotated with its composite score. Lower is better.
type ScoredRoute struct {
	Route
	Score float64 `json:"score"`
}

// MarshalJSON writes the route object with the score added to it.
func (s ScoredRoute) MarshalJSON() ([]byte, error) {
	if s.raw == nil {
		return json.Marshal(struct {
			routeFields
			Score float64 `json:"score"`
		}{routeFields(s.Route), s.Score})
	}
	score, err := json.Marshal(s.Score)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(s.raw)+1)
	maps.Copy(out, s.raw)
	out["score"] = score
	return json.Marshal(out)
}

func (s *ScoredRoute) UnmarshalJSON(b []byte) error {
	if err := s.Route.UnmarshalJSON(b); err != nil {
		return err
	}
	var v struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Score = v.Score
	delete(s.raw, "score")
	return nil
}

// Preferences weights the score components. Nil weights take the defaults,
// an explicit zero disables the component.
type Preferences struct {
	WeightTime       *float64 `json:"weightTime,omitempty"`
	WeightDistance   *float64 `json:"weightDistance,omitempty"`
	WeightWait       *float64 `json:"weightWait,omitempty"`
	WeightPower      *float64 `json:"weightPower,omitempty"`
	WeightCongestion *float64 `json:"weightCongestion,omitempty"`
}

type weights struct {
	time, distance, wait, power, congestion float64
}

func (p Preferences) withDefaults() weights {
	return weights{
		time:       valueOr(p.WeightTime, DefaultWeightTime),
		distance:   valueOr(p.WeightDistance, DefaultWeightDistance),
		wait:       valueOr(p.WeightWait, DefaultWeightWait),
		power:      valueOr(p.WeightPower, DefaultWeightPower),
		congestion: valueOr(p.WeightCongestion, DefaultWeightCongestion),
	}
}

// ScoreRoute computes the composite score of a single candidate.
func ScoreRoute(r Route, prefs Preferences) float64 {
	w := prefs.withDefaults()

	var totalWait, powerSum, maxCongestion float64
	for _, s := range r.Stations {
		totalWait += s.PredictedWaitMinutes
		powerSum += s.PowerKW
		maxCongestion = math.Max(maxCongestion, s.CongestionProbability)
	}
	avgPower := 0.0
	if len(r.Stations) > 0 {
		avgPower = powerSum / float64(len(r.Stations))
	}
	powerScore := 100.0
	if avgPower != 0 && !math.IsNaN(avgPower) {
		powerScore = 100 / avgPower
	}

	composite := w.time*r.EstimatedDriveMinutes +
		w.distance*r.TotalDistanceKm +
		w.wait*totalWait +
		w.congestion*maxCongestion*100 +
		w.power*powerScore
	return round2(finite(composite))
}

// ScoreRoutes scores every candidate and returns them best first. Ties keep
// their input order.
func ScoreRoutes(candidates []Route, prefs Preferences) []ScoredRoute {
	scored := make([]ScoredRoute, 0, len(candidates))
	for _, r := range candidates {
		scored = append(scored, ScoredRoute{Route: r, Score: ScoreRoute(r, prefs)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score < scored[j].Score })
	return scored
}
