package models

import (
	"context"
	"slices"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

// Principal is the caller of a request.
type Principal struct {
	UserID         uuid.UUID `json:"user_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email,omitempty"`
	Roles          []string  `json:"roles"`
	Permissions    []string  `json:"permissions"`
	TokenID        string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`
	// Anonymous principals carry no identity.
	Anonymous bool `json:"anonymous"`
	// Service is set for internal callers authenticated by service token.
	Service string `json:"service,omitempty"`
}

func AnonymousPrincipal() *Principal {
	return &Principal{Anonymous: true}
}

// PrincipalFromClaims builds the principal of an access token.
func PrincipalFromClaims(c *Claims) *Principal {
	return &Principal{
		UserID:         c.Subject,
		TenantID:       c.TenantID,
		OrganizationID: c.OrganizationID,
		Email:          c.Email,
		Roles:          c.Roles,
		Permissions:    c.Permissions,
		TokenID:        c.TokenID.String(),
		TokenExpiresAt: c.ExpiresAt,
	}
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && !p.Anonymous
}

func (p *Principal) HasRole(role string) bool {
	return p.IsAuthenticated() && slices.Contains(p.Roles, role)
}

func (p *Principal) HasPermission(key string) bool {
	return p.IsAuthenticated() && slices.Contains(p.Permissions, key)
}

func (p *Principal) IsSuperAdmin() bool {
	return p.HasRole(types.RoleSuperAdmin)
}

// LogID is the identifier used in logs and audit entries.
func (p *Principal) LogID() string {
	if !p.IsAuthenticated() {
		return "anonymous"
	}
	if p.Service != "" && p.UserID == uuid.Nil {
		return "service:" + p.Service
	}
	return p.UserID.String()
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext never returns nil; missing principals are anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok && p != nil {
		return p
	}
	return AnonymousPrincipal()
}
