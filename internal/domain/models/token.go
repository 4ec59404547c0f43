package models

import (
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenSubject is everything an access token says about its holder.
type TokenSubject struct {
	User         *User
	Tenant       *Tenant
	Organization *Organization
	Roles        []string
	Permissions  []string
}

// Claims is the validated content of an AuthHub token.
type Claims struct {
	TokenID          uuid.UUID
	Subject          uuid.UUID
	Type             types.TokenType
	TenantID         uuid.UUID
	TenantName       string
	OrganizationID   uuid.UUID
	OrganizationName string
	Email            string
	Roles            []string
	Permissions      []string
	PermissionHash   string
	IssuedAt         time.Time
	ExpiresAt        time.Time
}

type RefreshTokenRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	LastUsed  *time.Time
}

// BlacklistEntry is a revoked access token kept until it would expire anyway.
type BlacklistEntry struct {
	TokenID       string             `json:"jti"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Reason        types.RevokeReason `json:"reason"`
	BlacklistedAt time.Time          `json:"blacklisted_at"`
}

// JWK is a public RSA key in JSON Web Key form.
type JWK struct {
	KeyType   string `json:"kty"`
	Use       string `json:"use"`
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid"`
	Modulus   string `json:"n"`
	Exponent  string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// LoginMeta describes where a login attempt came from.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type LoginResult struct {
	UserID uuid.UUID `json:"user_id"`
	*TokenPair
}
