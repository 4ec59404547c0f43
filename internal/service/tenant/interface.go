package tenant

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type TenantRepo interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error)
	Update(ctx context.Context, tenant *models.Tenant) error
}

// SubscriptionReader lists the codes of services a tenant is actively
// subscribed to.
type SubscriptionReader interface {
	ActiveServiceCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}
