package microservices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/authhub/config"
	"github.com/Temutjin2k/authhub/internal/adapter/http/handler"
	httpserver "github.com/Temutjin2k/authhub/internal/adapter/http/server"
	"github.com/Temutjin2k/authhub/internal/adapter/postgres"
	"github.com/Temutjin2k/authhub/internal/adapter/postgres/migrations"
	rabbitadapter "github.com/Temutjin2k/authhub/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/authhub/internal/adapter/redis"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/audit"
	"github.com/Temutjin2k/authhub/internal/service/auth"
	"github.com/Temutjin2k/authhub/internal/service/endpoint"
	"github.com/Temutjin2k/authhub/internal/service/onboarding"
	"github.com/Temutjin2k/authhub/internal/service/organization"
	"github.com/Temutjin2k/authhub/internal/service/permission"
	"github.com/Temutjin2k/authhub/internal/service/registry"
	"github.com/Temutjin2k/authhub/internal/service/role"
	"github.com/Temutjin2k/authhub/internal/service/security"
	"github.com/Temutjin2k/authhub/internal/service/subscription"
	"github.com/Temutjin2k/authhub/internal/service/tenant"
	"github.com/Temutjin2k/authhub/internal/service/user"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/otel"
	"github.com/Temutjin2k/authhub/pkg/passhash"
	postgresclient "github.com/Temutjin2k/authhub/pkg/postgres"
	"github.com/Temutjin2k/authhub/pkg/rabbit"
	redisclient "github.com/Temutjin2k/authhub/pkg/redis"
	"github.com/Temutjin2k/authhub/pkg/trm"
	ws "github.com/Temutjin2k/authhub/pkg/wsHub"
)

type eventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}

// APIService serves the public, admin and internal HTTP APIs.
type APIService struct {
	postgresDB   *postgresclient.PostgreDB
	redis        *redisclient.Client
	rabbit       *rabbit.RabbitMQ // nil when the broker is disabled
	hub          *ws.ConnectionHub
	recorder     *audit.Recorder // nil when auditing is disabled
	httpServer   *httpserver.API
	otelShutdown func(context.Context) error

	cfg config.Config
	log logger.Logger
}

func NewAPI(ctx context.Context, cfg config.Config, log logger.Logger) (_ *APIService, err error) {
	ctx = wrap.WithAction(ctx, "api_init")

	s := &APIService{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

	s.otelShutdown, err = otel.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}

	s.postgresDB, err = postgresclient.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		applied, err := postgresclient.ApplyMigrations(ctx, s.postgresDB.Pool, migrations.FS, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info(ctx, "migrations applied", "count", len(applied))
	}

	s.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	var publisher eventPublisher = rabbitadapter.NewNoopPublisher(log)
	if cfg.RabbitMQ.Enabled {
		s.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			return nil, err
		}
		publisher = rabbitadapter.NewEventPublisher(s.rabbit, cfg.Telemetry.ServiceName, log)
	}

	trManager := trm.New(s.postgresDB.Pool)
	hasher := passhash.New(cfg.Auth.BcryptCost)

	// repositories
	var (
		tenantRepo   = postgres.NewTenantRepo(s.postgresDB.Pool)
		orgRepo      = postgres.NewOrganizationRepo(s.postgresDB.Pool)
		userRepo     = postgres.NewUserRepo(s.postgresDB.Pool)
		roleRepo     = postgres.NewRoleRepo(s.postgresDB.Pool)
		grantRepo    = postgres.NewGrantRepo(s.postgresDB.Pool)
		permRepo     = postgres.NewPermissionRepo(s.postgresDB.Pool)
		serviceRepo  = postgres.NewServiceRepo(s.postgresDB.Pool)
		endpointRepo = postgres.NewEndpointRepo(s.postgresDB.Pool)
		auditRepo    = postgres.NewAuditRepo(s.postgresDB.Pool)
		refreshRepo  = postgres.NewRefreshTokenRepo(s.postgresDB.Pool)
		subRepo      = postgres.NewSubscriptionRepo(s.postgresDB.Pool)
	)

	// services
	privateKey, err := auth.LoadRSAPrivateKey(cfg.Auth.RSAPrivateKeyPath)
	if err != nil {
		return nil, err
	}
	tokenSvc, err := auth.NewTokenService(auth.TokenConfig{
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		Secret:     cfg.Auth.JWTSecret,
		PrivateKey: privateKey,
		KeyID:      cfg.Auth.KeyID,
	}, refreshRepo, log)
	if err != nil {
		return nil, err
	}

	blacklistSvc := security.NewBlacklistService(redisadapter.NewBlacklistStore(s.redis), log)
	authSvc := auth.NewAuthService(auth.Repositories{
		Users:         userRepo,
		Tenants:       tenantRepo,
		Organizations: orgRepo,
		Access:        grantRepo,
	}, tokenSvc, blacklistSvc, hasher, publisher, trManager, log)

	auditSvc := audit.NewAuditService(auditRepo, log)

	services := httpserver.Services{
		Auth:          authSvc,
		Tenants:       tenant.NewTenantService(tenantRepo, subRepo, publisher, log),
		Subscriptions: subscription.NewSubscriptionService(subRepo, tenantRepo, serviceRepo, publisher, log),
		Organizations: organization.NewOrganizationService(orgRepo, tenantRepo, log),
		Users:         user.NewUserService(userRepo, tenantRepo, orgRepo, grantRepo, hasher, tokenSvc, publisher, trManager, log),
		Roles:         role.NewRoleService(roleRepo, grantRepo, permRepo, userRepo, publisher, trManager, log),
		Permissions:   permission.NewPermissionService(permRepo, permRepo, log),
		Registry:      registry.NewRegistryService(serviceRepo, log),
		Endpoints:     endpoint.NewEndpointService(endpointRepo, permRepo, serviceRepo, roleRepo, grantRepo, trManager, log),
		Audit:         auditSvc,
		Onboarding: onboarding.NewOnboardingService(
			tenantRepo, orgRepo, redisadapter.NewIdempotencyStore(s.redis), publisher, trManager, log,
		),
	}

	if cfg.RateLimit.Enabled {
		services.RateLimits = security.NewRateLimiter(redisadapter.NewCounterStore(s.redis), rateLimitRules(cfg.RateLimit))
	}

	s.hub = ws.NewConnHub(log)
	if cfg.Audit.Enabled {
		// Entries go through the broker to the worker when it is available,
		// otherwise straight to the database.
		var sink audit.Sink = auditSvc
		if s.rabbit != nil {
			sink = rabbitadapter.NewAuditSink(s.rabbit, cfg.Telemetry.ServiceName)
		}
		s.recorder = audit.NewRecorder(sink, s.hub, cfg.Audit.BufferSize, log)
		services.Recorder = s.recorder
	}

	s.httpServer, err = httpserver.New(cfg, services, s.hub, s.healthChecks(), log)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *APIService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "api service closed")
	}()

	if s.recorder != nil {
		s.recorder.Start(ctx)
	}

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *APIService) healthChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(s.postgresDB.Pool.Ping),
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		}),
	}
	if s.rabbit != nil {
		checks["rabbitmq"] = handler.PingFunc(func(context.Context) error {
			if s.rabbit.IsConnectionClosed() {
				return errors.New("connection closed")
			}
			return nil
		})
	}
	return checks
}

// close releases resources in reverse dependency order. It tolerates a
// partially initialized service.
func (s *APIService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Error(ctx, "failed to shutdown HTTP server", err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Close(ctx); err != nil {
			s.log.Error(ctx, "failed to flush audit recorder", err)
		}
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Error(ctx, "failed to close rabbitmq", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Error(ctx, "failed to close redis", err)
		}
	}
	if s.postgresDB != nil {
		s.postgresDB.Close()
	}
	if s.otelShutdown != nil {
		if err := s.otelShutdown(ctx); err != nil {
			s.log.Error(ctx, "failed to shutdown tracer provider", err)
		}
	}
}

func rateLimitRules(cfg config.RateLimitConfig) map[types.RateLimitType]security.Rule {
	rules := security.DefaultRules()
	if cfg.Window <= 0 {
		return rules
	}
	rules[types.RateLimitIP] = security.Rule{Limit: cfg.IPLimit, Window: cfg.Window}
	rules[types.RateLimitUser] = security.Rule{Limit: cfg.UserLimit, Window: cfg.Window}
	rules[types.RateLimitEndpoint] = security.Rule{Limit: cfg.EndpointLimit, Window: cfg.Window}
	return rules
}
