package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/auth"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

// Authenticate resolves the caller and stores the principal in the context.
//
// A bearer token wins. Without one, trusted gateway headers are used when
// enabled; otherwise the request continues as anonymous and protected routes
// answer 401 through RequireAuth. A bad token is rejected here.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal := models.AnonymousPrincipal()
		if header := r.Header.Get("Authorization"); header != "" {
			token, err := extractBearerToken(header)
			if err != nil {
				errorResponse(w, http.StatusUnauthorized, err.Error())
				return
			}

			principal, err = m.auth.Authenticate(ctx, token)
			if err != nil {
				m.log.Warn(wrap.ErrorCtx(ctx, err), "failed to authenticate request", "error", err.Error())
				errorResponse(w, http.StatusUnauthorized, unauthorizedMessage(err))
				return
			}
		} else if m.cfg.TrustGatewayHeaders {
			gw, err := principalFromGateway(r)
			if err != nil {
				errorResponse(w, http.StatusUnauthorized, err.Error())
				return
			}
			if gw != nil {
				principal = gw
			}
		}

		if principal.IsAuthenticated() {
			ctx = wrap.WithUserID(ctx, principal.LogID())
			if principal.TenantID != uuid.Nil {
				ctx = wrap.WithTenantID(ctx, principal.TenantID.String())
			}
		}

		next.ServeHTTP(w, r.WithContext(models.WithPrincipal(ctx, principal)))
	})
}

// RequireAuth answers 401 for anonymous callers.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !models.PrincipalFromContext(r.Context()).IsAuthenticated() {
			errorResponse(w, http.StatusUnauthorized, types.ErrUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperAdmin answers 401 for anonymous and 403 for other callers.
func (m *Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !models.PrincipalFromContext(r.Context()).IsSuperAdmin() {
			errorResponse(w, http.StatusForbidden, types.ErrAccessDenied.Error())
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ServiceToken guards the internal API. The caller becomes a service
// principal that passes every access check.
func (m *Middleware) ServiceToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(types.HeaderServiceToken)
		if token == "" || !m.validServiceToken(token) {
			m.log.Warn(r.Context(), "rejected internal call", "path", r.URL.Path)
			errorResponse(w, http.StatusUnauthorized, types.ErrInvalidServiceToken.Error())
			return
		}

		principal := &models.Principal{
			Roles:   []string{types.RoleSuperAdmin},
			Service: r.Header.Get("X-Service-Name"),
		}
		if principal.Service == "" {
			principal.Service = "internal"
		}

		ctx := wrap.WithUserID(r.Context(), principal.LogID())
		next.ServeHTTP(w, r.WithContext(models.WithPrincipal(ctx, principal)))
	})
}

func (m *Middleware) validServiceToken(token string) bool {
	ok := false
	for _, candidate := range m.cfg.ServiceTokens {
		if candidate == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			ok = true
		}
	}
	return ok
}

// principalFromGateway returns nil when the gateway sent no user id.
func principalFromGateway(r *http.Request) (*models.Principal, error) {
	rawUser := r.Header.Get(types.HeaderUserID)
	if rawUser == "" {
		return nil, nil
	}

	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return nil, fmt.Errorf("invalid %s header", types.HeaderUserID)
	}

	p := &models.Principal{UserID: userID}
	if s := r.Header.Get(types.HeaderTenantID); s != "" {
		if p.TenantID, err = uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("invalid %s header", types.HeaderTenantID)
		}
	}
	if s := r.Header.Get(types.HeaderOrganizationID); s != "" {
		if p.OrganizationID, err = uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("invalid %s header", types.HeaderOrganizationID)
		}
	}

	for _, role := range splitList(r.Header.Get(types.HeaderUserRoles)) {
		p.Roles = append(p.Roles, strings.TrimPrefix(strings.ToUpper(role), "ROLE_"))
	}
	p.Permissions = splitList(r.Header.Get(types.HeaderPermissions))

	return p, nil
}

// unauthorizedMessage keeps token failures specific without leaking internals.
func unauthorizedMessage(err error) string {
	for _, known := range []error{auth.ErrExpToken, auth.ErrTokenRevoked, auth.ErrInvalidToken} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return auth.ErrInvalidToken.Error()
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
