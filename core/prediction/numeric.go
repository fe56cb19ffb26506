package prediction

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// roundHalfUp rounds to the nearest integer with halves going towards +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// finite replaces NaN and ±Inf with 0. JSON cannot carry them.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Number is a float decoded leniently from client input. JSON numbers and
// numeric strings are taken as is; booleans, objects and other strings decode
// to NaN, which the predictors treat as absent.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Number(math.NaN())
	switch x := v.(type) {
	case float64:
		*n = Number(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*n = Number(f)
		}
	}
	return nil
}

// MarshalJSON writes null for values that are not finite.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// numberOr returns def when p is nil or did not decode to a number.
func numberOr(p *Number, def float64) float64 {
	if p == nil || math.IsNaN(float64(*p)) {
		return def
	}
	return float64(*p)
}
