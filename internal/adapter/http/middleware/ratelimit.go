package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
)

type limitCheck struct {
	typ types.RateLimitType
	id  string
}

// RateLimit applies the per-IP rule to every request path and the per-user
// rule to authenticated callers. Limiter failures let the request through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if m.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		path := r.URL.Path

		checks := []limitCheck{{types.RateLimitIP, models.RequestInfoFromContext(ctx).IP}}
		if p := models.PrincipalFromContext(ctx); p.IsAuthenticated() && p.Service == "" {
			checks = append(checks, limitCheck{types.RateLimitUser, p.UserID.String()})
		}

		for _, c := range checks {
			if c.id == "" {
				continue
			}
			res, err := m.limiter.Allow(ctx, c.typ, c.id, path)
			if err != nil {
				m.log.Warn(wrap.ErrorCtx(ctx, err), "rate limiter unavailable", "error", err.Error())
				continue
			}
			setRateLimitHeaders(w, res)
			if !res.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(string(c.typ)).Inc()
				retry := max(int(time.Until(res.ResetAt).Seconds()+0.5), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, res *models.RateLimitResult) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}
