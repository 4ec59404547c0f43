package models

import (
	"regexp"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

var RoleNameRX = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,63}$`)

type Role struct {
	ID          uuid.UUID            `json:"id"`
	TenantID    *uuid.UUID           `json:"tenant_id,omitempty"`
	ServiceID   *uuid.UUID           `json:"service_id,omitempty"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Type        types.DefinitionType `json:"type"`
	Deleted     bool                 `json:"deleted"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func NewRole(tenantID, serviceID *uuid.UUID, name, displayName, description string, typ types.DefinitionType, now time.Time) *Role {
	if displayName == "" {
		displayName = name
	}
	return &Role{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ServiceID:   serviceID,
		Name:        name,
		DisplayName: displayName,
		Description: description,
		Type:        typ,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Scope is GLOBAL for roles without a tenant.
func (r *Role) Scope() types.RoleScope {
	if r.TenantID == nil {
		return types.ScopeGlobal
	}
	return types.ScopeTenant
}

func (r *Role) IsSystem() bool { return r.Type == types.TypeSystem }

func (r *Role) Update(displayName, description string, now time.Time) error {
	if r.IsSystem() {
		return types.ErrSystemDefinition
	}
	if r.Deleted {
		return ErrAlreadyDeleted
	}
	if displayName != "" {
		r.DisplayName = displayName
	}
	r.Description = description
	r.UpdatedAt = now
	return nil
}

func (r *Role) Delete(now time.Time) error {
	if r.IsSystem() {
		return types.ErrSystemDefinition
	}
	if r.Deleted {
		return ErrAlreadyDeleted
	}
	r.Deleted = true
	r.UpdatedAt = now
	return nil
}

type RoleFilter struct {
	TenantID  *uuid.UUID
	ServiceID *uuid.UUID
	Name      string
	Type      types.DefinitionType
	// WithGlobal includes GLOBAL roles when TenantID is set.
	WithGlobal bool
	Filters
}

var RoleSortSafelist = []string{"name", "created_at", "-name", "-created_at"}

type RolePermission struct {
	RoleID       uuid.UUID `json:"role_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}
