package onboarding

import (
	"context"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
)

type TenantRepo interface {
	Create(ctx context.Context, tenant *models.Tenant) error
}

type OrganizationRepo interface {
	Create(ctx context.Context, org *models.Organization) error
}

// IdempotencyStore remembers onboarding results by client key.
// Get returns nil, nil when the key is unknown.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*models.OnboardingResult, error)
	Save(ctx context.Context, key string, result *models.OnboardingResult, ttl time.Duration) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}
