package predict

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/history"
)

type fixture struct {
	clock *clock.Manual
	store *history.Store
	mux   *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC))
	store := history.NewStore(history.WithClock(clk), history.WithLocation(time.UTC))
	mux := http.NewServeMux()
	NewHandler(store, clk, nil).Register(mux)
	return &fixture{clock: clk, store: store, mux: mux}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestSlot_EchoesStationAndRecords(t *testing.T) {
	f := newFixture(t)
	rr := f.do("POST", "/api/predict/slot",
		`{"stationId":"st-1","portsTotal":4,"portsBusy":4,"powerKw":50,"timeOfDay":9,"historicalUtilization":0.6,"extra":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	out := decode[map[string]any](t, rr)
	assert.Equal(t, "st-1", out["stationId"])
	assert.Equal(t, 0.0, out["predictedAvailablePorts"])
	assert.Equal(t, 40.0, out["predictedWaitMinutes"])
	assert.Equal(t, "slot-v0.1-heuristic", out["modelVersion"])

	recs := f.store.Query(history.Filter{TimeRange: history.RangeAll})
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, history.TypeSlot, rec.Type)
	assert.Equal(t, "st-1", rec.Station())
	require.NotNil(t, rec.PredictedValue)
	assert.Equal(t, 100.0, *rec.PredictedValue)
	assert.Equal(t, map[string]any{"portsTotal": 4.0, "portsBusy": 4.0, "powerKw": 50.0, "timeOfDay": 9.0}, rec.Meta)
}

func TestSlot_NoStation(t *testing.T) {
	f := newFixture(t)
	rr := f.do("POST", "/api/predict/slot", `{"portsTotal":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode[map[string]any](t, rr)
	_, ok := out["stationId"]
	assert.False(t, ok, "stationId should be omitted")
	recs := f.store.Query(history.Filter{TimeRange: history.RangeAll})
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].StationID)
}

func TestSlot_NumericStationID(t *testing.T) {
	f := newFixture(t)
	rr := f.do("POST", "/api/predict/slot", `{"stationId":42,"portsTotal":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 42.0, decode[map[string]any](t, rr)["stationId"])
	assert.Equal(t, "42", f.store.Query(history.Filter{})[0].Station())
}

func TestSlot_LenientNumbers(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{
		`{"portsTotal":2.0,"timeOfDay":9.5}`,
		`{"portsTotal":"2","timeOfDay":"9"}`,
		`{"portsTotal":2,"portsBusy":1.0,"timeOfDay":9,"dayOfWeek":"1"}`,
	} {
		rr := f.do("POST", "/api/predict/slot", body)
		require.Equal(t, http.StatusOK, rr.Code, body)
		out := decode[map[string]any](t, rr)
		assert.Equal(t, 0.0, out["predictedAvailablePorts"], body)
		assert.Equal(t, 1.0, out["congestionProbability"], body)
	}
	assert.Equal(t, 3, f.store.Len())
	// meta keeps the values as sent
	recs := f.store.Query(history.Filter{})
	metas := []map[string]any{recs[0].Meta, recs[1].Meta, recs[2].Meta}
	assert.Contains(t, metas, map[string]any{"portsTotal": "2", "timeOfDay": "9"})
}

func TestMalformedBodies(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/slot", "/energy", "/route", "/actual"} {
		rr := f.do("POST", "/api/predict"+path, `{"portsTotal":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.Contains(t, rr.Body.String(), `"error"`, path)
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestEnergy_RecordsRemainingSoC(t *testing.T) {
	f := newFixture(t)
	rr := f.do("POST", "/api/predict/energy",
		`{"currentSoCPercent":80,"batteryCapacityKWh":40,"distanceKmPlanned":50,"stationId":"st-2"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode[map[string]any](t, rr)
	assert.Equal(t, 56.0, out["predictedRemainingSoC"])
	assert.Equal(t, []any{}, out["alerts"])

	recs := f.store.Query(history.Filter{})
	require.Len(t, recs, 1)
	assert.Equal(t, history.TypeEnergy, recs[0].Type)
	assert.Equal(t, "st-2", recs[0].Station())
	assert.Equal(t, 56.0, *recs[0].PredictedValue)
	assert.Equal(t, 80.0, recs[0].Meta["currentSoCPercent"])
	assert.Equal(t, "st-2", recs[0].Meta["stationId"])
}

func TestEnergy_EmptyBodyUsesDefaults(t *testing.T) {
	f := newFixture(t)
	rr := f.do("POST", "/api/predict/energy", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, map[string]any{}, f.store.Query(history.Filter{})[0].Meta)
}

func TestRoute_BestFirstAndRecorded(t *testing.T) {
	f := newFixture(t)
	body := `{"candidates":[
		{"id":"slow","totalDistanceKm":120,"estimatedDriveMinutes":95,"stations":[]},
		{"id":"fast","totalDistanceKm":120,"estimatedDriveMinutes":80,"stations":[]}
	],"preferences":{"weightTime":0.5}}`
	rr := f.do("POST", "/api/predict/route", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	out := decode[map[string]any](t, rr)
	best := out["bestRoute"].(map[string]any)
	assert.Equal(t, "fast", best["id"])
	assert.Len(t, out["routes"], 2)

	recs := f.store.Query(history.Filter{})
	require.Len(t, recs, 1)
	assert.Equal(t, history.TypeRoute, recs[0].Type)
	assert.Nil(t, recs[0].StationID)
	assert.Equal(t, best["score"], *recs[0].PredictedValue)
	assert.Equal(t, map[string]any{"preferences": map[string]any{"weightTime": 0.5}}, recs[0].Meta)
}

func TestRoute_KeepsCandidateFields(t *testing.T) {
	f := newFixture(t)
	body := `{"candidates":[
		{"id":"r1","totalDistanceKm":120,"estimatedDriveMinutes":80,"polyline":"abc","summary":"via A1",
		 "stations":[{"id":"s1","powerKw":150,"congestionProbability":0.2,"predictedWaitMinutes":5,"address":"12 Avenue Foch"}]},
		{"id":"r2","totalDistanceKm":140,"estimatedDriveMinutes":95,"legs":[{"km":140}]}
	]}`
	rr := f.do("POST", "/api/predict/route", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	out := decode[map[string]any](t, rr)
	best := out["bestRoute"].(map[string]any)
	assert.Equal(t, "r1", best["id"])
	assert.Equal(t, "abc", best["polyline"])
	assert.Equal(t, "via A1", best["summary"])
	assert.Contains(t, best, "score")
	station := best["stations"].([]any)[0].(map[string]any)
	assert.Equal(t, "12 Avenue Foch", station["address"])

	routes := out["routes"].([]any)
	require.Len(t, routes, 2)
	assert.Equal(t, best, routes[0])
	second := routes[1].(map[string]any)
	assert.Equal(t, []any{map[string]any{"km": 140.0}}, second["legs"])
	_, hasStations := second["stations"]
	assert.False(t, hasStations, "absent fields stay absent")
}

func TestRoute_NonArrayCandidates(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{}`, `{"candidates":"nope"}`, `{"candidates":{"a":1}}`, `{"candidates":[]}`} {
		rr := f.do("POST", "/api/predict/route", body)
		require.Equal(t, http.StatusOK, rr.Code, body)
		assert.JSONEq(t, `{"bestRoute":null,"routes":[]}`, rr.Body.String(), body)
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestHistory_FiltersAndDefaults(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/slot", `{"stationId":"a","portsTotal":2}`)
	f.clock.Advance(8 * 24 * time.Hour)
	f.do("POST", "/api/predict/slot", `{"stationId":"a","portsTotal":2}`)
	f.do("POST", "/api/predict/slot", `{"stationId":"b","portsTotal":2}`)

	// default window is a week, so the first record is out
	all := decode[[]history.Record](t, f.do("GET", "/api/predict/history", ""))
	assert.Len(t, all, 2)

	everything := decode[[]history.Record](t, f.do("GET", "/api/predict/history?timeRange=all", ""))
	assert.Len(t, everything, 3)

	onlyA := decode[[]history.Record](t, f.do("GET", "/api/predict/history?timeRange=all&stationId=a", ""))
	assert.Len(t, onlyA, 2)

	last := decode[[]history.Record](t, f.do("GET", "/api/predict/history?timeRange=all&limit=1", ""))
	require.Len(t, last, 1)
	assert.Equal(t, int64(3), last[0].ID)
}

func TestHistory_EmptyIsArray(t *testing.T) {
	f := newFixture(t)
	rr := f.do("GET", "/api/predict/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestHistory_CSV(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/slot", `{"stationId":"a","portsTotal":2}`)
	rr := f.do("GET", "/api/predict/history?format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,timestamp,station_id,type"))
	assert.True(t, strings.HasPrefix(lines[1], "1,2025-06-02T18:00:00Z,a,slot,"))
}

func TestActual(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/energy", `{"currentSoCPercent":80,"batteryCapacityKWh":40,"distanceKmPlanned":50}`)

	rr := f.do("POST", "/api/predict/actual", `{"id":1,"actualValue":50}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rec := decode[history.Record](t, rr)
	require.NotNil(t, rec.ErrorValue)
	assert.Equal(t, 6.0, *rec.ErrorValue)

	rr = f.do("POST", "/api/predict/actual", `{"id":"1","actualValue":"55.5"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rec = decode[history.Record](t, rr)
	assert.Equal(t, 0.5, *rec.ErrorValue)
}

func TestActual_Validation(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/slot", `{"portsTotal":2}`)

	cases := map[string]int{
		`{}`:                           http.StatusBadRequest,
		`{"id":1}`:                     http.StatusBadRequest,
		`{"id":0,"actualValue":3}`:     http.StatusBadRequest,
		`{"id":"x","actualValue":3}`:   http.StatusBadRequest,
		`{"id":1,"actualValue":"abc"}`: http.StatusBadRequest,
		`{"id":1,"actualValue":"NaN"}`: http.StatusBadRequest,
		`{"id":99,"actualValue":3}`:    http.StatusNotFound,
		`{"id":1.5,"actualValue":3}`:   http.StatusNotFound,
		`{"id":1,"actualValue":3}`:     http.StatusOK,
	}
	for body, want := range cases {
		rr := f.do("POST", "/api/predict/actual", body)
		assert.Equal(t, want, rr.Code, body)
	}
	rr := f.do("POST", "/api/predict/actual", `{"id":99,"actualValue":3}`)
	assert.JSONEq(t, `{"error":"Prediction not found"}`, rr.Body.String())
}

func TestAccuracyAndUsagePatterns(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/energy", `{"currentSoCPercent":80,"batteryCapacityKWh":40,"distanceKmPlanned":50,"stationId":"s"}`)
	f.do("POST", "/api/predict/energy", `{"currentSoCPercent":80,"batteryCapacityKWh":40,"distanceKmPlanned":50,"stationId":"s"}`)
	f.do("POST", "/api/predict/actual", `{"id":1,"actualValue":58}`)
	f.do("POST", "/api/predict/actual", `{"id":2,"actualValue":76}`)

	acc := decode[history.AccuracySummary](t, f.do("GET", "/api/predict/accuracy?stationId=s", ""))
	assert.Equal(t, 2, acc.TotalPredictions)
	assert.Equal(t, 1, acc.AccuratePredictions)
	assert.Equal(t, 50.0, acc.Accuracy)
	assert.Equal(t, 11.0, acc.AverageError)

	buckets := decode[[]history.HourBucket](t, f.do("GET", "/api/predict/usage-patterns", ""))
	require.Len(t, buckets, 24)
	assert.Equal(t, 18, buckets[18].Hour)
	assert.Equal(t, 56.0, buckets[18].AvgOccupancy)
	assert.Equal(t, 0.0, buckets[3].AvgOccupancy)
}

func TestUsageChart(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/predict/slot", `{"portsTotal":2}`)
	rr := f.do("GET", "/api/predict/usage-patterns/chart?timeRange=day", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestUsageChart_EmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	buckets := make([]history.HourBucket, history.HoursPerDay)
	for i := range buckets {
		buckets[i].Hour = i
	}
	require.NoError(t, RenderUsageChart(&buf, buckets, "empty"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rr := f.do("GET", "/api/predict/slot", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRegisterAppliesMiddleware(t *testing.T) {
	store := history.NewStore()
	mux := http.NewServeMux()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	NewHandler(store, nil, nil).Register(mux, deny)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/predict/slot", strings.NewReader("{}")))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, store.Len())
}
