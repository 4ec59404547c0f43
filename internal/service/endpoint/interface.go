package endpoint

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type EndpointRepo interface {
	Create(ctx context.Context, endpoint *models.PermissionEndpoint) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionEndpoint, error)
	List(ctx context.Context, filter models.EndpointFilter) ([]*models.PermissionEndpoint, int, error)
	Update(ctx context.Context, endpoint *models.PermissionEndpoint) error
	// ListActive returns every non-deleted endpoint with its permission key.
	ListActive(ctx context.Context, serviceName string) ([]*models.PermissionEndpoint, error)
}

type PermissionRepo interface {
	Create(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	GetByKeys(ctx context.Context, keys []string) ([]*models.Permission, error)
}

type ServiceRepo interface {
	GetByCode(ctx context.Context, code string) (*models.Service, error)
}

type RoleRepo interface {
	// FindServiceRole returns the GLOBAL role called name of a service, or nil.
	FindServiceRole(ctx context.Context, serviceID uuid.UUID, name string) (*models.Role, error)
}

type GrantRepo interface {
	GrantPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error)
}
