package middleware

import (
	"net/http"
	"time"

	"github.com/Temutjin2k/authhub/pkg/metrics"
)

// Metrics records HTTP metrics labelled by route pattern.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip metrics endpoint to avoid recursion
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		metrics.HttpRequestsInFlight.WithLabelValues(m.cfg.ServiceName).Inc()
		defer metrics.HttpRequestsInFlight.WithLabelValues(m.cfg.ServiceName).Dec()

		rw := newStatusRecorder(w)
		next.ServeHTTP(rw, r)

		metrics.RecordHTTPMetrics(m.cfg.ServiceName, r.Method, patternOf(r), rw.Status(), time.Since(start))
	})
}
