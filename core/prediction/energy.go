package prediction

import "math"

// EnergyModelVersion tags energy and service predictions.
const EnergyModelVersion = "energy-service-v0.1-heuristic"

const (
	AlertServiceDue      = "Service due soon"
	AlertBatteryDegraded = "Battery health degraded"
	AlertLowBattery      = "Low battery on planned route"
)

const (
	defaultCapacityKWh   = 40.0
	defaultConsumption   = 18.0
	defaultBatteryAge    = 12.0
	defaultOdometerKm    = 20000.0
	defaultTemperatureC  = 30.0
	serviceIntervalKm    = 10000.0
	maxDegradation       = 0.4
	degradationPerYear   = 0.03
	degradationPer50kKm  = 0.05
	minExplicitHealth    = 0.4
	serviceDueThreshold  = 0.8
	degradedHealthLimit  = 0.7
	lowRemainingSoCLimit = 15.0
)

// EnergyInput describes the vehicle and the planned trip.
type EnergyInput struct {
	CurrentSoCPercent           float64  `json:"currentSoCPercent"`
	BatteryCapacityKWh          float64  `json:"batteryCapacityKWh"`
	DistanceKmPlanned           float64  `json:"distanceKmPlanned"`
	AvgConsumptionKWhPer100Km   *float64 `json:"avgConsumptionKWhPer100Km,omitempty"`
	BatteryAgeMonths            *float64 `json:"batteryAgeMonths,omitempty"`
	OdometerKm                  *float64 `json:"odometerKm,omitempty"`
	AvgTemperatureC             *float64 `json:"avgTemperatureC,omitempty"`
	AvgCurrentDrawA             *float64 `json:"avgCurrentDrawA,omitempty"`
	BatteryHealthPercent        *float64 `json:"batteryHealthPercent,omitempty"`
	PreferredChargeLimitPercent *float64 `json:"preferredChargeLimitPercent,omitempty"`
}

// EnergyPrediction is the range, remaining charge and service outlook.
type EnergyPrediction struct {
	ProjectedRangeKm        float64  `json:"projectedRangeKm"`
	PredictedRemainingSoC   float64  `json:"predictedRemainingSoC"`
	BatteryHealth           float64  `json:"batteryHealth"`
	RangeDegradationPercent float64  `json:"rangeDegradationPercent"`
	NextServiceDuePercent   float64  `json:"nextServiceDuePercent"`
	Alerts                  []string `json:"alerts"`
	ModelVersion            string   `json:"modelVersion"`
}

type energyParams struct {
	soc         float64
	capacity    float64
	distance    float64
	consumption float64
	ageMonths   float64
	odometer    float64
	temperature float64
	healthPct   float64
	chargeLimit float64
}

func (in EnergyInput) withDefaults() energyParams {
	p := energyParams{
		soc:         in.CurrentSoCPercent,
		capacity:    in.BatteryCapacityKWh,
		distance:    in.DistanceKmPlanned,
		consumption: valueOr(in.AvgConsumptionKWhPer100Km, defaultConsumption),
		ageMonths:   valueOr(in.BatteryAgeMonths, defaultBatteryAge),
		odometer:    valueOr(in.OdometerKm, defaultOdometerKm),
		temperature: valueOr(in.AvgTemperatureC, defaultTemperatureC),
		healthPct:   valueOr(in.BatteryHealthPercent, 0),
		chargeLimit: valueOr(in.PreferredChargeLimitPercent, 0),
	}
	if p.capacity == 0 {
		p.capacity = defaultCapacityKWh
	}
	return p
}

// TemperatureFactor derates usable capacity in extreme ambient temperatures.
func TemperatureFactor(celsius float64) float64 {
	switch {
	case celsius < 5 || celsius > 40:
		return 0.85
	case celsius < 10 || celsius > 35:
		return 0.9
	default:
		return 1
	}
}

// batteryHealth returns the health fraction and the total degradation. An
// explicit health percentage wins over the age and mileage estimate.
func batteryHealth(p energyParams) (health, degradation float64) {
	if p.healthPct > 0 {
		health = clamp(p.healthPct/100, minExplicitHealth, 1)
		return health, 1 - health
	}
	fromAge := p.ageMonths / 12 * degradationPerYear
	fromMileage := p.odometer / 50000 * degradationPer50kKm
	degradation = math.Min(maxDegradation, fromAge+fromMileage)
	return 1 - degradation, degradation
}

// PredictEnergy projects range and remaining charge for the planned distance
// and flags service and battery alerts.
func PredictEnergy(in EnergyInput) EnergyPrediction {
	p := in.withDefaults()

	health, degradation := batteryHealth(p)
	effectiveCapacity := p.capacity * health * TemperatureFactor(p.temperature)

	soc := p.soc
	if p.chargeLimit != 0 {
		soc = math.Min(soc, p.chargeLimit)
	}

	usableKWh := soc / 100 * effectiveCapacity
	rangeKm := usableKWh / (p.consumption / 100)

	neededKWh := p.distance * p.consumption / 100
	remainingKWh := usableKWh - neededKWh
	remainingSoC := remainingKWh / effectiveCapacity * 100
	if math.IsNaN(remainingSoC) {
		remainingSoC = 0
	}
	remainingSoC = clamp(remainingSoC, 0, 100)

	serviceDue := clamp(math.Mod(p.odometer, serviceIntervalKm)/serviceIntervalKm, 0, 1)

	alerts := []string{}
	if serviceDue > serviceDueThreshold {
		alerts = append(alerts, AlertServiceDue)
	}
	if health < degradedHealthLimit {
		alerts = append(alerts, AlertBatteryDegraded)
	}
	if remainingSoC < lowRemainingSoCLimit {
		alerts = append(alerts, AlertLowBattery)
	}

	return EnergyPrediction{
		ProjectedRangeKm:        finite(roundHalfUp(rangeKm)),
		PredictedRemainingSoC:   roundHalfUp(remainingSoC),
		BatteryHealth:           round2(health),
		RangeDegradationPercent: finite(roundHalfUp(degradation * 100)),
		NextServiceDuePercent:   round2(finite(serviceDue)),
		Alerts:                  alerts,
		ModelVersion:            EnergyModelVersion,
	}
}
