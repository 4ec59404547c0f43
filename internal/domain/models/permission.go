package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

var PermissionKeyRX = regexp.MustCompile(`^[a-z][a-z0-9-]*:[a-z][a-z0-9-]*$`)

type Permission struct {
	ID          uuid.UUID            `json:"id"`
	ServiceID   *uuid.UUID           `json:"service_id,omitempty"`
	Key         string               `json:"key"`
	Resource    string               `json:"resource"`
	Action      string               `json:"action"`
	Description string               `json:"description"`
	Type        types.DefinitionType `json:"type"`
	Deleted     bool                 `json:"deleted"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ParsePermissionKey splits "resource:action". The key must already be lower case.
func ParsePermissionKey(key string) (resource, action string, err error) {
	if !PermissionKeyRX.MatchString(key) {
		return "", "", ErrInvalidPermissionKey
	}
	resource, action, _ = strings.Cut(key, ":")
	return resource, action, nil
}

func NewPermission(serviceID *uuid.UUID, key, description string, typ types.DefinitionType, now time.Time) (*Permission, error) {
	resource, action, err := ParsePermissionKey(key)
	if err != nil {
		return nil, err
	}
	return &Permission{
		ID:          uuid.New(),
		ServiceID:   serviceID,
		Key:         key,
		Resource:    resource,
		Action:      action,
		Description: description,
		Type:        typ,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Permission) IsSystem() bool { return p.Type == types.TypeSystem }

func (p *Permission) Update(description string, now time.Time) error {
	if p.IsSystem() {
		return types.ErrSystemDefinition
	}
	if p.Deleted {
		return ErrAlreadyDeleted
	}
	p.Description = description
	p.UpdatedAt = now
	return nil
}

func (p *Permission) Delete(now time.Time) error {
	if p.IsSystem() {
		return types.ErrSystemDefinition
	}
	if p.Deleted {
		return ErrAlreadyDeleted
	}
	p.Deleted = true
	p.UpdatedAt = now
	return nil
}

func (p *Permission) Restore(now time.Time) error {
	if !p.Deleted {
		return ErrNotDeleted
	}
	p.Deleted = false
	p.UpdatedAt = now
	return nil
}

type PermissionFilter struct {
	ServiceID      *uuid.UUID
	Resource       string
	Type           types.DefinitionType
	IncludeDeleted bool
	Filters
}

var PermissionSortSafelist = []string{"key", "created_at", "-key", "-created_at"}

// PermissionValidation reports which of the requested keys exist.
type PermissionValidation struct {
	Valid    bool     `json:"valid"`
	Existing []string `json:"existing"`
	Missing  []string `json:"missing"`
}

// PermissionUsage records where a service references a permission key.
type PermissionUsage struct {
	PermissionKey string    `json:"permission_key"`
	ServiceName   string    `json:"service_name"`
	Locations     []string  `json:"locations"`
	LastScannedAt time.Time `json:"last_scanned_at"`
}
