package monitoring

import (
	"fmt"
	"net/http"

	"github.com/kilianp07/evroute/core/logger"
)

// Recoverer turns a panicking handler into a 500 response and reports the
// panic to m. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as usual.
func Recoverer(m Monitor, log logger.Logger) func(http.Handler) http.Handler {
	if m == nil {
		m = NopMonitor{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				if log != nil {
					log.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, v)
				}
				m.CapturePanic(v, map[string]string{"method": r.Method, "path": r.URL.Path})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = fmt.Fprintln(w, `{"error":"internal server error"}`)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
