package middleware

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

// routeState is shared by every middleware of one request. The mux stores the
// matched pattern on its own copy of the request, so Route copies it here for
// the outer middlewares.
type routeState struct {
	pattern string
}

type routeStateKey struct{}

func routeFromContext(ctx context.Context) *routeState {
	st, _ := ctx.Value(routeStateKey{}).(*routeState)
	return st
}

// patternOf returns the matched route pattern or "unmatched".
func patternOf(r *http.Request) string {
	if st := routeFromContext(r.Context()); st != nil && st.pattern != "" {
		return st.pattern
	}
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// RequestID accepts X-Request-ID, then X-Trace-Id, or generates one. It
// echoes the id in the response and stores the request info in the context.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(types.HeaderRequestID)
		if id == "" {
			id = r.Header.Get(types.HeaderTraceID)
		}
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(types.HeaderRequestID, id)

		ctx := wrap.WithRequestID(r.Context(), id)
		ctx = models.WithRequestInfo(ctx, models.RequestInfo{
			RequestID: id,
			IP:        ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		ctx = context.WithValue(ctx, routeStateKey{}, &routeState{})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Route records the matched mux pattern. It wraps each registered handler.
func (m *Middleware) Route(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if st := routeFromContext(r.Context()); st != nil {
			st.pattern = r.Pattern
		}
		next.ServeHTTP(w, r)
	})
}
