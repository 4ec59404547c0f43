package models

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"-"`
	Type           types.UserType `json:"type"`
	Status         types.Status   `json:"status"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type UserCreateRequest struct {
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
	Email          string
	Password       string
	Type           types.UserType
	Name           string
	Phone          string
	RoleIDs        []uuid.UUID
}

func (u *User) IsActive() bool { return u.Status == types.StatusActive }

func (u *User) ChangeStatus(next types.Status, now time.Time) error {
	if !u.Status.CanUserTransition(next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, u.Status, next)
	}
	u.Status = next
	u.UpdatedAt = now
	return nil
}

// UpdateProfile changes name and phone. Empty values keep the current ones.
func (u *User) UpdateProfile(name, phone string, now time.Time) error {
	if !u.IsActive() {
		return ErrNotActive
	}
	if name != "" {
		u.Name = name
	}
	if phone != "" {
		u.Phone = phone
	}
	u.UpdatedAt = now
	return nil
}

func (u *User) ChangePassword(hash string, now time.Time) error {
	if !u.IsActive() {
		return ErrNotActive
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	return nil
}

// UserAccess is a user together with its effective roles and permissions.
type UserAccess struct {
	User        *User    `json:"user"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type UserFilter struct {
	TenantID       *uuid.UUID
	OrganizationID *uuid.UUID
	Email          string
	Status         types.Status
	Filters
}

var UserSortSafelist = []string{"created_at", "email", "name", "-created_at", "-email", "-name"}
