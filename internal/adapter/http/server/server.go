package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Temutjin2k/authhub/config"
	"github.com/Temutjin2k/authhub/internal/adapter/http/handler"
	"github.com/Temutjin2k/authhub/internal/adapter/http/middleware"
	wshandler "github.com/Temutjin2k/authhub/internal/adapter/http/ws"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/authhub/pkg/wsHub"
)

type (
	// AuthService is what the handlers, the middleware and the websocket
	// stream need from authentication.
	AuthService interface {
		handler.AuthService
		middleware.AuthService
	}

	TenantService interface {
		handler.TenantService
		handler.TenantConfigService
	}

	UserService interface {
		handler.UserService
		handler.UserAccessService
	}

	PermissionService interface {
		handler.PermissionService
		handler.PermissionCatalog
	}

	EndpointService interface {
		handler.EndpointService
		handler.SpecService
	}

	SubscriptionService interface {
		handler.SubscriptionService
		handler.SubscriptionCatalog
	}

	RateLimiter interface {
		handler.RateLimitResetter
		middleware.RateLimiter
	}
)

// Services are the use cases the API exposes.
type Services struct {
	Auth          AuthService
	Tenants       TenantService
	Subscriptions SubscriptionService
	Organizations handler.OrganizationService
	Users         UserService
	Roles         handler.RoleService
	Permissions   PermissionService
	Registry      handler.RegistryService
	Endpoints     EndpointService
	Audit         handler.AuditService
	Onboarding    handler.OnboardingService

	// RateLimits may be nil when rate limiting is disabled.
	RateLimits RateLimiter
	// Recorder may be nil when auditing is disabled.
	Recorder middleware.AuditRecorder
}

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health       *handler.Health
	auth         *handler.Auth
	tenant       *handler.Tenant
	subscription *handler.Subscription
	organization *handler.Organization
	user         *handler.User
	role         *handler.Role
	permission   *handler.Permission
	registry     *handler.Registry
	endpoint     *handler.Endpoint
	audit        *handler.Audit
	rateLimit    *handler.RateLimit
	internal     *handler.Internal
	auditStream  *wshandler.AuditStream
}

func New(
	cfg config.Config,
	svc Services,
	hub *ws.ConnectionHub,
	checks map[string]handler.Pinger,
	logger logger.Logger,
) (*API, error) {
	if svc.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	serviceName := cfg.Telemetry.ServiceName

	routes := &handlers{
		health:       handler.NewHealth(serviceName, checks, logger),
		auth:         handler.NewAuth(svc.Auth, logger),
		tenant:       handler.NewTenant(svc.Tenants, logger),
		subscription: handler.NewSubscription(svc.Subscriptions, logger),
		organization: handler.NewOrganization(svc.Organizations, logger),
		user:         handler.NewUser(svc.Users, logger),
		role:         handler.NewRole(svc.Roles, logger),
		permission:   handler.NewPermission(svc.Permissions, logger),
		registry:     handler.NewRegistry(svc.Registry, logger),
		endpoint:     handler.NewEndpoint(svc.Endpoints, logger),
		audit:        handler.NewAudit(svc.Audit, logger),
		internal: handler.NewInternal(
			svc.Endpoints, svc.Tenants, svc.Subscriptions, svc.Users, svc.Onboarding, svc.Permissions, logger,
		),
	}
	if hub != nil {
		routes.auditStream = wshandler.NewAuditStream(hub, svc.Auth, serviceName, logger)
	}

	var limiter middleware.RateLimiter
	if svc.RateLimits != nil {
		limiter = svc.RateLimits
		routes.rateLimit = handler.NewRateLimit(svc.RateLimits, logger)
	}

	mid := middleware.NewMiddleware(svc.Auth, limiter, svc.Recorder, middleware.Config{
		ServiceName:         serviceName,
		ServiceTokens:       cfg.Auth.ServiceTokens,
		TrustGatewayHeaders: cfg.Auth.TrustGatewayHeaders,
	}, logger)

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   cfg.HTTP.Addr(),
		cfg:    cfg,
		log:    logger,
	}

	setupRoutes(api.mux, api.routes, api.m)

	api.server = &http.Server{
		Addr:         api.addr,
		Handler:      api.withMiddleware(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return api, nil
}

// Handler exposes the full middleware chain, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(
		a.m.RequestID(
			a.m.Tracing(
				a.m.Metrics(
					a.m.Logging(
						a.m.Authenticate(
							a.m.RateLimit(
								a.m.Audit(a.mux),
							),
						),
					),
				),
			),
		),
	)
}
