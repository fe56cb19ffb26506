package history

import (
	"maps"
	"math"
	"time"
)

// Type tags the predictor that produced a record.
type Type string

const (
	TypeSlot   Type = "slot"
	TypeEnergy Type = "energy"
	TypeRoute  Type = "route"
)

// Valid reports whether t is one of the known predictor tags.
func (t Type) Valid() bool {
	switch t {
	case TypeSlot, TypeEnergy, TypeRoute:
		return true
	}
	return false
}

// Record is one logged prediction plus the later observed outcome.
type Record struct {
	ID             int64          `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	StationID      *string        `json:"stationId"`
	Type           Type           `json:"type"`
	PredictedValue *float64       `json:"predictedValue"`
	ActualValue    *float64       `json:"actualValue"`
	ErrorValue     *float64       `json:"errorValue"`
	Confidence     *float64       `json:"confidence"`
	Meta           map[string]any `json:"meta"`
}

// Entry is the caller supplied part of a Record.
type Entry struct {
	StationID      string
	Type           Type
	PredictedValue *float64
	ActualValue    *float64
	Confidence     *float64
	Meta           map[string]any
}

// Station returns the station id or "" when the record has none.
func (r Record) Station() string {
	if r.StationID == nil {
		return ""
	}
	return *r.StationID
}

// clone returns a copy that shares no mutable state with r.
func (r Record) clone() Record {
	out := r
	out.StationID = clonePtr(r.StationID)
	out.PredictedValue = clonePtr(r.PredictedValue)
	out.ActualValue = clonePtr(r.ActualValue)
	out.ErrorValue = clonePtr(r.ErrorValue)
	out.Confidence = clonePtr(r.Confidence)
	out.Meta = maps.Clone(r.Meta)
	if out.Meta == nil {
		out.Meta = map[string]any{}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// absError returns |actual - predicted| or nil when either side is missing.
func absError(predicted, actual *float64) *float64 {
	if predicted == nil || actual == nil {
		return nil
	}
	e := math.Abs(*actual - *predicted)
	return &e
}
