package subscription

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type SubscriptionRepo interface {
	Create(ctx context.Context, s *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, int, error)
	Update(ctx context.Context, s *models.Subscription) error
}

type TenantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type ServiceRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}
