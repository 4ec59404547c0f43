// Package access decides what a principal may do. Every check is a pure
// function of the principal and the target; SUPER_ADMIN passes all of them.
package access

import (
	"context"
	"fmt"
	"slices"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

// Actions used in permission keys.
const (
	Create = "create"
	Read   = "read"
	Update = "update"
	Delete = "delete"
	Assign = "assign"
)

type Checker struct {
	p *models.Principal
}

func For(p *models.Principal) Checker {
	if p == nil {
		p = models.AnonymousPrincipal()
	}
	return Checker{p: p}
}

// FromContext returns a checker for the principal stored in ctx.
func FromContext(ctx context.Context) Checker {
	return For(models.PrincipalFromContext(ctx))
}

func (c Checker) Principal() *models.Principal { return c.p }

func (c Checker) Authenticated() bool { return c.p.IsAuthenticated() }

func (c Checker) SuperAdmin() bool { return c.p.IsSuperAdmin() }

func (c Checker) TenantAdmin() bool { return c.p.HasRole(types.RoleTenantAdmin) }

func (c Checker) OrgAdmin() bool { return c.p.HasRole(types.RoleOrgAdmin) }

func (c Checker) Myself(userID uuid.UUID) bool {
	return c.Authenticated() && userID != uuid.Nil && c.p.UserID == userID
}

func (c Checker) HasRole(role string) bool { return c.SuperAdmin() || c.p.HasRole(role) }

func (c Checker) HasPermission(key string) bool {
	return c.SuperAdmin() || c.p.HasPermission(key)
}

func (c Checker) HasAnyPermission(keys ...string) bool {
	if c.SuperAdmin() {
		return true
	}
	return slices.ContainsFunc(keys, c.p.HasPermission)
}

func (c Checker) HasAllPermissions(keys ...string) bool {
	if c.SuperAdmin() {
		return true
	}
	if !c.Authenticated() {
		return false
	}
	for _, k := range keys {
		if !c.p.HasPermission(k) {
			return false
		}
	}
	return true
}

func (c Checker) SameTenant(tenantID uuid.UUID) bool {
	return c.SuperAdmin() || (c.Authenticated() && tenantID != uuid.Nil && c.p.TenantID == tenantID)
}

// SameOrganization also holds for tenant admins of the organization's tenant,
// which the caller checks separately with SameTenant.
func (c Checker) SameOrganization(orgID uuid.UUID) bool {
	if c.SuperAdmin() || c.TenantAdmin() {
		return true
	}
	return c.Authenticated() && orgID != uuid.Nil && c.p.OrganizationID == orgID
}

// RequireSuperAdmin fails for everyone but SUPER_ADMIN.
func (c Checker) RequireSuperAdmin() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if !c.SuperAdmin() {
		return denied("super admin required")
	}
	return nil
}

func (c Checker) RequireAuthenticated() error {
	return c.requireAuth()
}

// Tenant allows action on tenantID to members of the tenant holding
// tenant:<action>.
func (c Checker) Tenant(tenantID uuid.UUID, action string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.SuperAdmin() {
		return nil
	}
	if !c.SameTenant(tenantID) {
		return denied("tenant %s is outside the caller's tenant", tenantID)
	}
	return c.require("tenant:" + action)
}

// Organization allows action on orgID inside tenantID. orgID is uuid.Nil when
// the organization does not exist yet.
func (c Checker) Organization(tenantID, orgID uuid.UUID, action string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.SuperAdmin() {
		return nil
	}
	if !c.SameTenant(tenantID) {
		return denied("organization is outside the caller's tenant")
	}
	if orgID != uuid.Nil && !c.SameOrganization(orgID) {
		return denied("organization %s is outside the caller's organization", orgID)
	}
	return c.require("organization:" + action)
}

// User allows a user to read and update themselves. Others need user:<action>
// within the same tenant and organization (tenant admins span the tenant).
func (c Checker) User(userID, tenantID, orgID uuid.UUID, action string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.SuperAdmin() {
		return nil
	}
	if c.Myself(userID) && (action == Read || action == Update) {
		return nil
	}
	if !c.SameTenant(tenantID) {
		return denied("user is outside the caller's tenant")
	}
	if !c.SameOrganization(orgID) {
		return denied("user is outside the caller's organization")
	}
	return c.require("user:" + action)
}

// Role allows action on roles of tenantID. Global roles (nil tenant) may be
// read by anyone holding role:read but changed only by SUPER_ADMIN.
func (c Checker) Role(tenantID *uuid.UUID, action string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.SuperAdmin() {
		return nil
	}
	if tenantID == nil {
		if action != Read {
			return denied("global roles are managed by super admins")
		}
	} else if !c.SameTenant(*tenantID) {
		return denied("role is outside the caller's tenant")
	}
	return c.require("role:" + action)
}

// Permission lets any authenticated principal read permissions.
func (c Checker) Permission(action string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if action == Read {
		return nil
	}
	return c.require("permission:" + action)
}

func (c Checker) require(key string) error {
	if c.HasPermission(key) {
		return nil
	}
	return denied("missing permission %s", key)
}

func (c Checker) requireAuth() error {
	if !c.Authenticated() {
		return types.ErrUnauthorized
	}
	return nil
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrAccessDenied, fmt.Sprintf(format, args...))
}
