package role

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type RoleRepo interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Role, error)
	List(ctx context.Context, filter models.RoleFilter) ([]*models.Role, int, error)
	Update(ctx context.Context, role *models.Role) error
}

// GrantRepo manages the role_permissions and user_roles link tables.
type GrantRepo interface {
	GrantPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error)
	RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error)
	RolePermissions(ctx context.Context, roleID uuid.UUID) ([]*models.Permission, error)

	AssignUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error)
	RevokeUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error)
	UserRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error)
}

type PermissionRepo interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Permission, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}
