package middleware

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
)

type (
	AuthService interface {
		Authenticate(ctx context.Context, token string) (*models.Principal, error)
	}

	RateLimiter interface {
		Allow(ctx context.Context, typ types.RateLimitType, identifier, endpoint string) (*models.RateLimitResult, error)
	}

	AuditRecorder interface {
		Record(entry *models.AuditLog) bool
	}

	Config struct {
		ServiceName string
		// ServiceTokens are accepted in the X-Service-Token header of internal calls.
		ServiceTokens []string
		// TrustGatewayHeaders builds the principal from X-User-* headers when
		// no bearer token is present.
		TrustGatewayHeaders bool
	}

	Middleware struct {
		auth    AuthService
		limiter RateLimiter
		audit   AuditRecorder
		cfg     Config
		log     logger.Logger
	}
)

// NewMiddleware builds the middleware set. limiter and audit may be nil to
// disable rate limiting and request auditing.
func NewMiddleware(auth AuthService, limiter RateLimiter, audit AuditRecorder, cfg Config, log logger.Logger) *Middleware {
	return &Middleware{
		auth:    auth,
		limiter: limiter,
		audit:   audit,
		cfg:     cfg,
		log:     log,
	}
}
