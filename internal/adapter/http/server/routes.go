package server

import (
	"net/http"

	_ "github.com/Temutjin2k/authhub/docs"
	"github.com/Temutjin2k/authhub/internal/adapter/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// router registers handlers with their access guard and records the matched
// pattern for metrics and tracing.
type router struct {
	mux *http.ServeMux
	m   *middleware.Middleware
}

func (rt router) public(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.m.Route(h))
}

func (rt router) authed(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.m.Route(rt.m.RequireAuth(h)))
}

func (rt router) superAdmin(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.m.Route(rt.m.RequireSuperAdmin(h)))
}

func (rt router) internal(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.m.Route(rt.m.ServiceToken(h)))
}

// setupRoutes - setups http routes. Fine grained permission checks happen in
// the services; the guards here only separate anonymous, authenticated, super
// admin and internal callers.
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	rt := router{mux: mux, m: m}

	// System Health
	rt.public("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)

	setupAuthRoutes(rt, routes)
	setupTenantRoutes(rt, routes)
	setupUserRoutes(rt, routes)
	setupRoleRoutes(rt, routes)
	setupRegistryRoutes(rt, routes)
	setupInternalRoutes(rt, routes)

	if routes.auditStream != nil {
		rt.public("GET /ws/audit", routes.auditStream.Serve)
	}
}

func setupAuthRoutes(rt router, routes *handlers) {
	rt.public("POST /api/v1/auth/login", routes.auth.Login)
	rt.public("POST /api/v1/auth/refresh", routes.auth.Refresh)
	rt.public("GET /api/v1/auth/jwks", routes.auth.JWKS)
	rt.authed("POST /api/v1/auth/logout", routes.auth.Logout)
	rt.authed("GET /api/v1/auth/me", routes.auth.Me)
}

func setupTenantRoutes(rt router, routes *handlers) {
	rt.superAdmin("POST /api/v1/auth/tenants", routes.tenant.Create)
	rt.authed("GET /api/v1/auth/tenants", routes.tenant.List)
	rt.authed("GET /api/v1/auth/tenants/{id}", routes.tenant.Get)
	rt.authed("PUT /api/v1/auth/tenants/{id}", routes.tenant.Update)
	rt.authed("PATCH /api/v1/auth/tenants/{id}/status", routes.tenant.ChangeStatus)
	rt.superAdmin("PATCH /api/v1/auth/tenants/{id}/delete", routes.tenant.Delete)

	rt.authed("POST /api/v1/auth/organizations", routes.organization.Create)
	rt.authed("GET /api/v1/auth/organizations", routes.organization.List)
	rt.authed("GET /api/v1/auth/organizations/{id}", routes.organization.Get)
	rt.authed("PUT /api/v1/auth/organizations/{id}", routes.organization.Update)
	rt.authed("PATCH /api/v1/auth/organizations/{id}/status", routes.organization.ChangeStatus)
	rt.authed("PATCH /api/v1/auth/organizations/{id}/delete", routes.organization.Delete)

	rt.superAdmin("POST /api/v1/auth/tenant-services", routes.subscription.Create)
	rt.authed("GET /api/v1/auth/tenant-services", routes.subscription.List)
	rt.authed("GET /api/v1/auth/tenant-services/{id}", routes.subscription.Get)
	rt.superAdmin("PATCH /api/v1/auth/tenant-services/{id}/status", routes.subscription.ChangeStatus)
}

func setupUserRoutes(rt router, routes *handlers) {
	rt.authed("POST /api/v1/auth/users", routes.user.Create)
	rt.authed("GET /api/v1/auth/users", routes.user.List)
	rt.authed("GET /api/v1/auth/users/{id}", routes.user.Get)
	rt.authed("PUT /api/v1/auth/users/{id}", routes.user.Update)
	rt.authed("PATCH /api/v1/auth/users/{id}/status", routes.user.ChangeStatus)
	rt.authed("PATCH /api/v1/auth/users/{id}/password", routes.user.ChangePassword)
	rt.authed("PATCH /api/v1/auth/users/{id}/delete", routes.user.Delete)

	rt.authed("GET /api/v1/auth/users/{id}/roles", routes.role.ListUserRoles)
	rt.authed("POST /api/v1/auth/users/{id}/roles", routes.role.AssignUserRoles)
	rt.authed("DELETE /api/v1/auth/users/{id}/roles", routes.role.RevokeUserRoles)
}

func setupRoleRoutes(rt router, routes *handlers) {
	rt.authed("POST /api/v1/auth/roles", routes.role.Create)
	rt.authed("GET /api/v1/auth/roles", routes.role.List)
	rt.authed("GET /api/v1/auth/roles/{id}", routes.role.Get)
	rt.authed("PUT /api/v1/auth/roles/{id}", routes.role.Update)
	rt.authed("PATCH /api/v1/auth/roles/{id}/delete", routes.role.Delete)
	rt.authed("GET /api/v1/auth/roles/{id}/permissions", routes.role.ListPermissions)
	rt.authed("POST /api/v1/auth/roles/{id}/permissions", routes.role.GrantPermissions)
	rt.authed("DELETE /api/v1/auth/roles/{id}/permissions", routes.role.RevokePermissions)

	rt.authed("POST /api/v1/auth/permissions", routes.permission.Create)
	rt.authed("GET /api/v1/auth/permissions", routes.permission.List)
	rt.authed("GET /api/v1/auth/permissions/{id}", routes.permission.Get)
	rt.authed("PUT /api/v1/auth/permissions/{id}", routes.permission.Update)
	rt.authed("PATCH /api/v1/auth/permissions/{id}/delete", routes.permission.Delete)
	rt.authed("PATCH /api/v1/auth/permissions/{id}/restore", routes.permission.Restore)

	rt.authed("POST /api/v1/permission-endpoints", routes.endpoint.Create)
	rt.authed("GET /api/v1/permission-endpoints", routes.endpoint.List)
	rt.authed("PUT /api/v1/permission-endpoints/{id}", routes.endpoint.Update)
	rt.authed("PATCH /api/v1/permission-endpoints/{id}/delete", routes.endpoint.Delete)
}

func setupRegistryRoutes(rt router, routes *handlers) {
	rt.superAdmin("POST /api/v1/auth/services", routes.registry.Create)
	rt.authed("GET /api/v1/auth/services", routes.registry.List)
	rt.authed("GET /api/v1/auth/services/{id}", routes.registry.Get)
	rt.superAdmin("PUT /api/v1/auth/services/{id}", routes.registry.Update)
	rt.superAdmin("PATCH /api/v1/auth/services/{id}/status", routes.registry.ChangeStatus)

	rt.superAdmin("GET /api/v1/auth/audit-logs", routes.audit.Search)
	if routes.rateLimit != nil {
		rt.superAdmin("POST /api/v1/auth/rate-limits/reset", routes.rateLimit.Reset)
	}
}

func setupInternalRoutes(rt router, routes *handlers) {
	rt.internal("GET /api/v1/internal/endpoint-permissions/spec", routes.internal.Spec)
	rt.internal("GET /api/v1/internal/tenants/{id}/config", routes.internal.TenantConfig)
	rt.internal("GET /api/v1/internal/tenants/{id}/services", routes.internal.TenantServices)
	rt.internal("GET /api/v1/internal/users/{id}/permissions", routes.internal.UserPermissions)
	rt.internal("POST /api/v1/internal/onboarding", routes.internal.Onboard)
	rt.internal("POST /api/v1/internal/endpoints/sync", routes.internal.Sync)
	rt.internal("GET /api/v1/internal/endpoints/match", routes.internal.MatchEndpoint)
	rt.internal("POST /api/v1/internal/permissions/validate", routes.internal.ValidatePermissions)
	rt.internal("POST /api/v1/internal/permissions/{key}/usages", routes.internal.RecordUsage)
}

// setupSwaggerRoutes configures Swagger UI endpoints
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName("authhub")
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
