package user

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
}

type TenantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type OrganizationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type AccessRepo interface {
	AssignUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error)
	UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserPermissionKeys(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}
