package permission

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type PermissionRepo interface {
	Create(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	GetByKey(ctx context.Context, key string) (*models.Permission, error)
	// ExistingKeys returns the subset of keys that exist and are not deleted.
	ExistingKeys(ctx context.Context, keys []string) ([]string, error)
	List(ctx context.Context, filter models.PermissionFilter) ([]*models.Permission, int, error)
	Update(ctx context.Context, permission *models.Permission) error
}

type UsageRepo interface {
	UpsertUsage(ctx context.Context, usage *models.PermissionUsage) error
	ListUsages(ctx context.Context, key string) ([]*models.PermissionUsage, error)
}
