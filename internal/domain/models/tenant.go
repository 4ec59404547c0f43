package models

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Status    types.Status `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewTenant(name string, now time.Time) *Tenant {
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Status:    types.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *Tenant) IsActive() bool { return t.Status == types.StatusActive }

// ChangeStatus moves the tenant to next if the lifecycle allows it.
func (t *Tenant) ChangeStatus(next types.Status, now time.Time) error {
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

func (t *Tenant) Rename(name string, now time.Time) error {
	if t.Status == types.StatusDeleted {
		return ErrAlreadyDeleted
	}
	t.Name = name
	t.UpdatedAt = now
	return nil
}

type TenantFilter struct {
	// ID restricts the listing to a single tenant.
	ID     *uuid.UUID
	Name   string
	Status types.Status
	Filters
}

var TenantSortSafelist = []string{"created_at", "name", "-created_at", "-name"}
