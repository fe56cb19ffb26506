// Package export renders prediction history for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/evroute/core/history"
)

// CSVHeader lists the CSV columns in order.
var CSVHeader = []string{"id", "timestamp", "station_id", "type", "predicted_value", "actual_value", "error_value", "confidence", "meta"}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []history.Record) error {
	if records == nil {
		records = []history.Record{}
	}
	return json.NewEncoder(w).Encode(records)
}

// WriteCSV writes the records to w in CSV format. Missing values are empty
// cells and meta is embedded as a JSON object.
func WriteCSV(w io.Writer, records []history.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		meta, err := json.Marshal(r.Meta)
		if err != nil {
			return err
		}
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.Station(),
			string(r.Type),
			formatFloat(r.PredictedValue),
			formatFloat(r.ActualValue),
			formatFloat(r.ErrorValue),
			formatFloat(r.Confidence),
			string(meta),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
