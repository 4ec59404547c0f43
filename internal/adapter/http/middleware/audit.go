package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

// resourceBySegment maps the first path segment after the API prefix.
var resourceBySegment = map[string]models.ResourceType{
	"tenants":              models.ResourceTenant,
	"organizations":        models.ResourceOrganization,
	"users":                models.ResourceUser,
	"roles":                models.ResourceRole,
	"permissions":          models.ResourcePermission,
	"services":             models.ResourceService,
	"permission-endpoints": models.ResourceEndpoint,
	"endpoint-permissions": models.ResourceEndpoint,
	"endpoints":            models.ResourceEndpoint,
	"audit-logs":           models.ResourceAudit,
	"rate-limits":          models.ResourceSystem,
	"onboarding":           models.ResourceTenant,
	"login":                models.ResourceAuth,
	"logout":               models.ResourceAuth,
	"refresh":              models.ResourceAuth,
	"me":                   models.ResourceAuth,
	"jwks":                 models.ResourceAuth,
}

// Audit records one entry per API request once the response is written.
func (m *Middleware) Audit(next http.Handler) http.Handler {
	if m.audit == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		ctx := r.Context()
		info := models.RequestInfoFromContext(ctx)
		resource, resourceID := resourceOf(r.URL.Path)

		m.audit.Record(&models.AuditLog{
			UserID:       models.PrincipalFromContext(ctx).LogID(),
			ActionType:   actionOf(r.Method, r.URL.Path, rec.Status()),
			ResourceType: resource,
			ResourceID:   resourceID,
			IP:           info.IP,
			UserAgent:    info.UserAgent,
			Method:       r.Method,
			Endpoint:     r.URL.Path,
			Status:       rec.Status(),
			DurationMs:   time.Since(start).Milliseconds(),
			RequestID:    info.RequestID,
		})
	})
}

func actionOf(method, path string, status int) models.ActionType {
	switch {
	case strings.HasSuffix(path, "/auth/login"):
		if status < http.StatusBadRequest {
			return models.ActionLogin
		}
		return models.ActionLoginFailed
	case strings.HasSuffix(path, "/auth/logout"):
		return models.ActionLogout
	case strings.HasSuffix(path, "/auth/refresh"):
		return models.ActionTokenRefresh
	case status == http.StatusForbidden:
		return models.ActionAccessDenied
	}

	switch method {
	case http.MethodPost:
		return models.ActionCreate
	case http.MethodPut, http.MethodPatch:
		if strings.HasSuffix(path, "/delete") {
			return models.ActionDelete
		}
		return models.ActionUpdate
	case http.MethodDelete:
		return models.ActionDelete
	default:
		return models.ActionRead
	}
}

// resourceOf finds the first known segment and the UUID that follows it.
func resourceOf(path string) (models.ResourceType, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		resource, ok := resourceBySegment[seg]
		if !ok {
			continue
		}
		if i+1 < len(segments) {
			if _, err := uuid.Parse(segments[i+1]); err == nil {
				return resource, segments[i+1]
			}
		}
		return resource, ""
	}
	return models.ResourceSystem, ""
}
