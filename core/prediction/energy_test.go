package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictEnergy_PlannedTrip(t *testing.T) {
	got := PredictEnergy(EnergyInput{
		CurrentSoCPercent:  80,
		BatteryCapacityKWh: 40,
		DistanceKmPlanned:  200,
		OdometerKm:         ptr(20000.0),
		AvgTemperatureC:    ptr(30.0),
	})
	assert.NotContains(t, got.Alerts, AlertServiceDue)
	assert.Less(t, got.PredictedRemainingSoC, 80.0)
	assert.Equal(t, 0.0, got.NextServiceDuePercent)
	assert.Equal(t, 0.95, got.BatteryHealth)
	assert.Equal(t, 5.0, got.RangeDegradationPercent)
	assert.Equal(t, 169.0, got.ProjectedRangeKm)
	assert.Equal(t, []string{AlertLowBattery}, got.Alerts)
	assert.Equal(t, EnergyModelVersion, got.ModelVersion)
}

func TestPredictEnergy_ShortTripKeepsCharge(t *testing.T) {
	got := PredictEnergy(EnergyInput{CurrentSoCPercent: 80, BatteryCapacityKWh: 40, DistanceKmPlanned: 50})
	// 30.4 kWh usable minus 9 kWh needed over 38 kWh effective capacity.
	assert.Equal(t, 56.0, got.PredictedRemainingSoC)
	assert.Empty(t, got.Alerts)
	assert.NotNil(t, got.Alerts)
}

func TestPredictEnergy_ExplicitHealthClamped(t *testing.T) {
	low := PredictEnergy(EnergyInput{CurrentSoCPercent: 50, BatteryHealthPercent: ptr(30.0)})
	assert.Equal(t, 0.4, low.BatteryHealth)
	assert.Equal(t, 60.0, low.RangeDegradationPercent)
	assert.Contains(t, low.Alerts, AlertBatteryDegraded)

	high := PredictEnergy(EnergyInput{CurrentSoCPercent: 50, BatteryHealthPercent: ptr(130.0)})
	assert.Equal(t, 1.0, high.BatteryHealth)
	assert.Equal(t, 0.0, high.RangeDegradationPercent)

	ignored := PredictEnergy(EnergyInput{CurrentSoCPercent: 50, BatteryHealthPercent: ptr(0.0)})
	assert.Equal(t, 0.95, ignored.BatteryHealth)
}

func TestPredictEnergy_DegradationCapped(t *testing.T) {
	got := PredictEnergy(EnergyInput{CurrentSoCPercent: 50, BatteryAgeMonths: ptr(240.0), OdometerKm: ptr(400000.0)})
	assert.Equal(t, 0.6, got.BatteryHealth)
	assert.Equal(t, 40.0, got.RangeDegradationPercent)
	assert.Contains(t, got.Alerts, AlertBatteryDegraded)
}

func TestPredictEnergy_ServiceDue(t *testing.T) {
	got := PredictEnergy(EnergyInput{CurrentSoCPercent: 90, OdometerKm: ptr(18500.0)})
	assert.Equal(t, 0.85, got.NextServiceDuePercent)
	require.NotEmpty(t, got.Alerts)
	assert.Equal(t, AlertServiceDue, got.Alerts[0])
}

func TestPredictEnergy_AlertOrder(t *testing.T) {
	got := PredictEnergy(EnergyInput{
		CurrentSoCPercent:    10,
		DistanceKmPlanned:    100,
		OdometerKm:           ptr(9900.0),
		BatteryHealthPercent: ptr(50.0),
	})
	assert.Equal(t, []string{AlertServiceDue, AlertBatteryDegraded, AlertLowBattery}, got.Alerts)
}

func TestPredictEnergy_ChargeLimit(t *testing.T) {
	limited := PredictEnergy(EnergyInput{CurrentSoCPercent: 90, PreferredChargeLimitPercent: ptr(80.0)})
	plain := PredictEnergy(EnergyInput{CurrentSoCPercent: 80})
	assert.Equal(t, plain.ProjectedRangeKm, limited.ProjectedRangeKm)
	assert.Equal(t, 80.0, limited.PredictedRemainingSoC)

	zeroLimit := PredictEnergy(EnergyInput{CurrentSoCPercent: 90, PreferredChargeLimitPercent: ptr(0.0)})
	assert.Equal(t, 90.0, zeroLimit.PredictedRemainingSoC)
}

func TestPredictEnergy_ZeroConsumptionStaysFinite(t *testing.T) {
	got := PredictEnergy(EnergyInput{CurrentSoCPercent: 60, AvgConsumptionKWhPer100Km: ptr(0.0), DistanceKmPlanned: 10})
	assert.Equal(t, 0.0, got.ProjectedRangeKm)
	assert.Equal(t, 60.0, got.PredictedRemainingSoC)
}

func TestPredictEnergy_RemainingSoCBounds(t *testing.T) {
	for _, soc := range []float64{-50, 0, 15, 50, 100, 250} {
		for _, dist := range []float64{-100, 0, 10, 500, 5000} {
			got := PredictEnergy(EnergyInput{CurrentSoCPercent: soc, DistanceKmPlanned: dist})
			if got.PredictedRemainingSoC < 0 || got.PredictedRemainingSoC > 100 {
				t.Fatalf("remaining SoC %v out of range for soc=%v dist=%v", got.PredictedRemainingSoC, soc, dist)
			}
		}
	}
}

func TestTemperatureFactor(t *testing.T) {
	cases := []struct {
		temp float64
		want float64
	}{
		{-10, 0.85}, {4.9, 0.85}, {5, 0.9}, {9.9, 0.9}, {10, 1}, {25, 1}, {35, 1}, {35.5, 0.9}, {40, 0.9}, {41, 0.85},
	}
	for _, c := range cases {
		if got := TemperatureFactor(c.temp); got != c.want {
			t.Errorf("temp %v: want %v got %v", c.temp, c.want, got)
		}
	}
}
