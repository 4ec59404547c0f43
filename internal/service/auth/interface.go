package auth

import (
	"context"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type TenantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type OrganizationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// AccessRepo resolves the effective roles and permissions of a user.
type AccessRepo interface {
	UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserPermissionKeys(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type RefreshTokenRepo interface {
	Save(ctx context.Context, record *models.RefreshTokenRecord) error
	Get(ctx context.Context, tokenID uuid.UUID) (*models.RefreshTokenRecord, error)
	MarkUsed(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Blacklist interface {
	Add(ctx context.Context, entry models.BlacklistEntry) error
	Exists(ctx context.Context, tokenID string) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}

type TokenProvider interface {
	GenerateTokens(ctx context.Context, subject *models.TokenSubject) (*models.TokenPair, error)
	Validate(ctx context.Context, token string) (*models.Claims, error)
	Consume(ctx context.Context, claims *models.Claims, rawToken string) error
	RevokeUser(ctx context.Context, userID uuid.UUID) (int64, error)
	JWKS() models.JWKS
	AccessTTL() time.Duration
}

// Repositories groups the read models the auth service needs.
type Repositories struct {
	Users         UserRepo
	Tenants       TenantRepo
	Organizations OrganizationRepo
	Access        AccessRepo
}
