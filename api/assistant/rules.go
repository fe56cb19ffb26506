// Package assistant answers driver questions about the current EV state,
// either from fixed rules or through a chat completion model.
package assistant

import (
	"context"
	"fmt"
	"strings"
)

// Thresholds shared by the rule based replies and the alert summary.
const (
	lowBatteryPercent      = 20.0
	moderateBatteryPercent = 40.0
	lowRemainingSoC        = 15.0
	serviceDueRatio        = 0.8
	degradedHealth         = 0.7
	maxListedAlerts        = 4
)

// Responder produces a reply for message given the client supplied context.
type Responder interface {
	Reply(ctx context.Context, message string, evctx map[string]any) (string, error)
}

// Rules replies from the alerts, battery level, predicted charge and selected
// station found in the context. It never fails.
type Rules struct{}

func (Rules) Reply(_ context.Context, _ string, evctx map[string]any) (string, error) {
	var lines []string

	if alerts := stringList(evctx["assistantAlerts"]); len(alerts) > 0 {
		lines = append(lines, "Here are the key alerts I see:")
		if len(alerts) > maxListedAlerts {
			alerts = alerts[:maxListedAlerts]
		}
		for _, a := range alerts {
			lines = append(lines, "- "+a)
		}
	}

	if battery, ok := number(evctx["battery"]); ok {
		switch {
		case battery <= lowBatteryPercent:
			lines = append(lines, "- Your battery is low. Plan a charge soon.")
		case battery <= moderateBatteryPercent:
			lines = append(lines, "- Battery is moderate, be cautious on long routes.")
		default:
			lines = append(lines, "- Battery looks comfortable for normal driving.")
		}
	}

	energy := object(evctx["predictedEnergy"])
	if soc, ok := number(energy["predictedRemainingSoC"]); ok && soc < lowRemainingSoC {
		lines = append(lines, "- Your predicted remaining charge at destination is very low. Add a charging stop.")
	}

	if name, ok := object(evctx["selectedStation"])["name"].(string); ok && name != "" {
		lines = append(lines, fmt.Sprintf("- Nearest recommended station: %s. Consider routing through it.", name))
	}

	if len(lines) == 0 {
		lines = append(lines, "Everything looks good. Ask me about alerts, route safety, or charging stops.")
	}
	return strings.Join(lines, "\n"), nil
}

// ComputeAlerts derives the alert summary sent along with the context to the
// model: battery, predicted charge, service and health checks, then the
// predictor's own alerts.
func ComputeAlerts(evctx map[string]any) []string {
	alerts := []string{}
	if battery, ok := number(evctx["battery"]); ok && battery <= lowBatteryPercent {
		alerts = append(alerts, "Low current battery - consider charging soon.")
	}
	energy := object(evctx["predictedEnergy"])
	if soc, ok := number(energy["predictedRemainingSoC"]); ok && soc < lowRemainingSoC {
		alerts = append(alerts, "Planned route may leave you with very low charge at destination.")
	}
	if due, ok := number(energy["nextServiceDuePercent"]); ok && due > serviceDueRatio {
		alerts = append(alerts, "Next service is due soon based on odometer.")
	}
	if health, ok := number(energy["batteryHealth"]); ok && health < degradedHealth {
		alerts = append(alerts, "Battery health is degraded - range may be reduced.")
	}
	alerts = append(alerts, stringList(energy["alerts"])...)
	return alerts
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch s := it.(type) {
		case string:
			out = append(out, s)
		case nil:
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	return out
}
