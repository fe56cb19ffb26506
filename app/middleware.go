package app

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// unmatchedRoute labels requests no route accepted, keeping the route label
// bounded.
const unmatchedRoute = "unmatched"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// requestMetrics reports every request to sink when it records requests. It
// must wrap the ServeMux directly so the matched pattern is visible on r.
func requestMetrics(sink coremetrics.MetricsSink, next http.Handler) http.Handler {
	rec, ok := sink.(coremetrics.RequestRecorder)
	if !ok {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		_ = rec.RecordRequest(coremetrics.RequestEvent{
			Route:    route,
			Method:   r.Method,
			Status:   status,
			Duration: time.Since(start),
		})
	})
}

// accessLog attaches log to each request and writes one line per response.
func accessLog(log zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(next)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(log)(h)
}
