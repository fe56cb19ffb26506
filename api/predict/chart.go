package predict

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/core/history"
)

const (
	chartWidth      = 1200
	chartHeight     = 480
	chartBarWidth   = 30
	chartBarSpacing = 15
)

// RenderUsageChart draws the hourly buckets as a PNG bar chart.
func RenderUsageChart(w io.Writer, buckets []history.HourBucket, title string) error {
	bars := make([]chart.Value, 0, len(buckets))
	top := 100.0
	for _, b := range buckets {
		bars = append(bars, chart.Value{Value: b.AvgOccupancy, Label: strconv.Itoa(b.Hour)})
		if b.AvgOccupancy > top {
			top = b.AvgOccupancy
		}
	}
	if len(bars) == 0 {
		return fmt.Errorf("no usage buckets to draw")
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Name:  "Occupancy (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render usage chart: %w", err)
	}
	return nil
}

func (h *Handler) usageChart(w http.ResponseWriter, r *http.Request) {
	tr := queryTimeRange(r)
	buf := new(bytes.Buffer)
	if err := RenderUsageChart(buf, h.store.UsagePatterns(tr), "Predicted occupancy by hour ("+string(tr)+")"); err != nil {
		h.log.Errorf("usage chart: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to render usage chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warnf("write usage chart: %v", err)
	}
}
