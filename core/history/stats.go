package history

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AccurateThreshold is the largest absolute error still counted as accurate.
const AccurateThreshold = 5.0

// HoursPerDay is the number of usage buckets.
const HoursPerDay = 24

// AccuracySummary aggregates prediction errors over a query.
type AccuracySummary struct {
	TotalPredictions    int     `json:"totalPredictions"`
	AccuratePredictions int     `json:"accuratePredictions"`
	Accuracy            float64 `json:"accuracy"`
	AverageError        float64 `json:"averageError"`
}

// HourBucket is the mean predicted value for one hour of the day.
type HourBucket struct {
	Hour         int     `json:"hour"`
	AvgOccupancy float64 `json:"avgOccupancy"`
}

// Accuracy summarises the records returned by Query for the station and
// window, using the default query limit. Only records with an observed
// outcome contribute to the accuracy and the average error.
func (s *Store) Accuracy(stationID string, tr TimeRange) AccuracySummary {
	items := s.Query(Filter{StationID: stationID, TimeRange: tr})
	sum := AccuracySummary{TotalPredictions: len(items)}

	errs := make([]float64, 0, len(items))
	for _, r := range items {
		if r.ActualValue == nil {
			continue
		}
		predicted := 0.0
		if r.PredictedValue != nil {
			predicted = *r.PredictedValue
		}
		errs = append(errs, math.Abs(*r.ActualValue-predicted))
		if r.ErrorValue == nil || *r.ErrorValue <= AccurateThreshold {
			sum.AccuratePredictions++
		}
	}
	if len(errs) == 0 {
		return sum
	}
	sum.Accuracy = float64(sum.AccuratePredictions) / float64(len(errs)) * 100
	sum.AverageError = stat.Mean(errs, nil)
	return sum
}

// UsagePatterns averages predicted values by hour of day over every record in
// the window regardless of station. Records without a predicted value or a
// timestamp are skipped. Empty hours report 0.
func (s *Store) UsagePatterns(tr TimeRange) []HourBucket {
	var values [HoursPerDay][]float64
	for _, r := range s.collect("", tr) {
		if r.PredictedValue == nil || r.Timestamp.IsZero() {
			continue
		}
		h := r.Timestamp.In(s.loc).Hour()
		values[h] = append(values[h], *r.PredictedValue)
	}

	out := make([]HourBucket, HoursPerDay)
	for h := range out {
		out[h].Hour = h
		if len(values[h]) > 0 {
			out[h].AvgOccupancy = stat.Mean(values[h], nil)
		}
	}
	return out
}
