package organization

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type OrganizationRepo interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context, filter models.OrganizationFilter) ([]*models.Organization, int, error)
	Update(ctx context.Context, org *models.Organization) error
}

type TenantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}
