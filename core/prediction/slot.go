package prediction

import (
	"math"

	"github.com/kilianp07/evroute/core/clock"
)

// SlotModelVersion tags slot predictions.
const SlotModelVersion = "slot-v0.1-heuristic"

const (
	defaultUtilization = 0.6
	baseSessionMinutes = 40.0
)

// SlotInput describes a charging station snapshot. Nil fields take their
// defaults. Numbers may arrive as JSON strings or with a fraction; a port
// count that is not a number counts as 0 and an hour that is not a number
// means the current hour. PortsBusy and DayOfWeek are accepted but do not
// influence the estimate yet.
type SlotInput struct {
	PortsTotal            Number  `json:"portsTotal"`
	PortsBusy             Number  `json:"portsBusy"`
	PowerKW               *Number `json:"powerKw,omitempty"`
	TimeOfDay             *Number `json:"timeOfDay,omitempty"`
	DayOfWeek             *Number `json:"dayOfWeek,omitempty"`
	HistoricalUtilization *Number `json:"historicalUtilization,omitempty"`
}

// SlotPrediction is the estimated station state.
type SlotPrediction struct {
	PredictedAvailablePorts int     `json:"predictedAvailablePorts"`
	PredictedWaitMinutes    int     `json:"predictedWaitMinutes"`
	CongestionProbability   float64 `json:"congestionProbability"`
	// PredictedOccupancy is the expected utilization in percent.
	PredictedOccupancy float64 `json:"predictedOccupancy"`
	ModelVersion       string  `json:"modelVersion"`
}

type slotParams struct {
	total       float64
	hour        float64
	powerKW     float64
	utilization float64
}

func (in SlotInput) withDefaults(clk clock.Clock) slotParams {
	p := slotParams{
		total:       math.Max(numberOr(&in.PortsTotal, 0), 1),
		utilization: numberOr(in.HistoricalUtilization, defaultUtilization),
		powerKW:     numberOr(in.PowerKW, 0),
	}
	if in.TimeOfDay != nil && !math.IsNaN(float64(*in.TimeOfDay)) {
		p.hour = float64(*in.TimeOfDay)
	} else {
		if clk == nil {
			clk = clock.System{}
		}
		p.hour = float64(clk.Now().Hour())
	}
	return p
}

// RushFactor scales utilization by hour of day. Values below 1 mark busy
// hours, above 1 quiet ones.
func RushFactor(hour float64) float64 {
	switch {
	case (hour >= 8 && hour <= 11) || (hour >= 17 && hour <= 21):
		return 0.6
	case hour >= 0 && hour <= 5:
		return 1.2
	default:
		return 1
	}
}

// PredictSlot estimates free ports, waiting time and congestion for a station.
func PredictSlot(in SlotInput, clk clock.Clock) SlotPrediction {
	p := in.withDefaults(clk)
	rush := RushFactor(p.hour)
	utilization := clamp(p.utilization*(1/rush), 0.1, 1)

	expectedBusy := p.total * utilization
	free := int(math.Max(roundHalfUp(p.total-expectedBusy), 0))

	wait := 0
	if free <= 0 {
		powerFactor := 1.0
		if p.powerKW != 0 {
			powerFactor = math.Max(0.4, 50/p.powerKW)
		}
		wait = int(roundHalfUp(baseSessionMinutes * utilization * powerFactor))
	}

	congestionScale := 0.9
	if rush < 1 {
		congestionScale = 1.1
	}

	return SlotPrediction{
		PredictedAvailablePorts: free,
		PredictedWaitMinutes:    wait,
		CongestionProbability:   finite(math.Min(1, utilization*congestionScale)),
		PredictedOccupancy:      round2(finite(utilization * 100)),
		ModelVersion:            SlotModelVersion,
	}
}
