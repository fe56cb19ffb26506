package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/clock"
)

func TestAccuracy_NoActuals(t *testing.T) {
	s := NewStore()
	s.Record(Entry{Type: TypeSlot, PredictedValue: f64(10)})
	s.Record(Entry{Type: TypeSlot, PredictedValue: f64(20)})
	got := s.Accuracy("", RangeWeek)
	assert.Equal(t, AccuracySummary{TotalPredictions: 2}, got)
}

func TestAccuracy_Math(t *testing.T) {
	s := NewStore()
	a := s.Record(Entry{StationID: "A", Type: TypeSlot, PredictedValue: f64(50)})
	b := s.Record(Entry{StationID: "A", Type: TypeSlot, PredictedValue: f64(50)})
	c := s.Record(Entry{StationID: "A", Type: TypeSlot, PredictedValue: f64(50)})
	s.Record(Entry{StationID: "A", Type: TypeSlot, PredictedValue: f64(50)})
	other := s.Record(Entry{StationID: "B", Type: TypeSlot, PredictedValue: f64(50)})

	for id, v := range map[int64]float64{a.ID: 52, b.ID: 60, c.ID: 46, other.ID: 90} {
		_, err := s.SetActual(id, v)
		require.NoError(t, err)
	}

	got := s.Accuracy("A", RangeWeek)
	assert.Equal(t, 4, got.TotalPredictions)
	assert.Equal(t, 2, got.AccuratePredictions)
	assert.InDelta(t, 200.0/3, got.Accuracy, 1e-9)
	assert.InDelta(t, 16.0/3, got.AverageError, 1e-9)

	all := s.Accuracy("", RangeAll)
	assert.Equal(t, 5, all.TotalPredictions)
	assert.InDelta(t, 50.0, all.Accuracy, 1e-9)
}

func TestAccuracy_ActualWithoutPrediction(t *testing.T) {
	s := NewStore()
	r := s.Record(Entry{Type: TypeRoute})
	_, err := s.SetActual(r.ID, 30)
	require.NoError(t, err)
	got := s.Accuracy("", RangeAll)
	assert.Equal(t, 1, got.AccuratePredictions)
	assert.Equal(t, 100.0, got.Accuracy)
	assert.Equal(t, 30.0, got.AverageError)
}

func TestAccuracy_UsesDefaultLimit(t *testing.T) {
	s := NewStore()
	first := s.Record(Entry{Type: TypeSlot, PredictedValue: f64(0)})
	_, err := s.SetActual(first.ID, 100)
	require.NoError(t, err)
	for i := 0; i < DefaultLimit; i++ {
		s.Record(Entry{Type: TypeSlot})
	}
	got := s.Accuracy("", RangeAll)
	assert.Equal(t, DefaultLimit, got.TotalPredictions)
	assert.Equal(t, 0.0, got.AverageError)
}

func TestUsagePatterns_Buckets(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC))
	s := NewStore(WithClock(clk), WithLocation(time.UTC))
	s.Record(Entry{StationID: "A", Type: TypeSlot, PredictedValue: f64(40)})
	s.Record(Entry{StationID: "B", Type: TypeSlot, PredictedValue: f64(60)})
	s.Record(Entry{Type: TypeRoute})
	clk.Advance(14 * time.Hour)
	s.Record(Entry{Type: TypeEnergy, PredictedValue: f64(12.5)})

	got := s.UsagePatterns(RangeWeek)
	require.Len(t, got, HoursPerDay)
	for h, b := range got {
		assert.Equal(t, h, b.Hour)
	}
	assert.Equal(t, 50.0, got[9].AvgOccupancy)
	assert.Equal(t, 12.5, got[23].AvgOccupancy)
	assert.Equal(t, 0.0, got[0].AvgOccupancy)
}

func TestUsagePatterns_IgnoresLimitAndWindow(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC))
	s := NewStore(WithClock(clk), WithLocation(time.UTC))
	s.Record(Entry{Type: TypeSlot, PredictedValue: f64(100)})
	clk.Advance(10 * 24 * time.Hour)
	for i := 0; i < 2*DefaultLimit; i++ {
		s.Record(Entry{Type: TypeSlot, PredictedValue: f64(10)})
	}

	week := s.UsagePatterns(RangeWeek)
	assert.Equal(t, 10.0, week[3].AvgOccupancy)
	all := s.UsagePatterns(RangeAll)
	assert.InDelta(t, (100.0+10*200)/201, all[3].AvgOccupancy, 1e-9)
}

func TestUsagePatterns_Location(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	clk := clock.NewManual(time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC))
	s := NewStore(WithClock(clk), WithLocation(paris))
	s.Record(Entry{Type: TypeSlot, PredictedValue: f64(80)})
	got := s.UsagePatterns(RangeAll)
	assert.Equal(t, 80.0, got[0].AvgOccupancy)
	assert.Equal(t, 0.0, got[23].AvgOccupancy)
}

func TestUsagePatterns_SkipsZeroTimestamp(t *testing.T) {
	s := NewStore(WithClock(clock.NewManual(time.Time{})), WithLocation(time.UTC))
	s.Record(Entry{Type: TypeSlot, PredictedValue: f64(80)})
	for _, b := range s.UsagePatterns(RangeAll) {
		assert.Equal(t, 0.0, b.AvgOccupancy)
	}
}
