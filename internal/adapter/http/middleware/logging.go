package middleware

import (
	"errors"
	"net/http"
	"time"
)

// Logging logs the request outcome: error for 5xx, warn for 4xx and info
// otherwise.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newStatusRecorder(w)

		m.log.Debug(
			r.Context(),
			"started",
			"method", r.Method,
			"URL", r.URL.Path,
			"request-host", r.Host,
		)

		next.ServeHTTP(rw, r)

		status := rw.Status()
		args := []any{
			"method", r.Method,
			"URL", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= http.StatusInternalServerError:
			m.log.Error(r.Context(), "completed", errors.New(http.StatusText(status)), args...)
		case status >= http.StatusBadRequest:
			m.log.Warn(r.Context(), "completed", args...)
		default:
			m.log.Info(r.Context(), "completed", args...)
		}
	})
}
