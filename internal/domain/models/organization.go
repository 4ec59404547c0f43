package models

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID    `json:"id"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	Name      string       `json:"name"`
	Status    types.Status `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewOrganization(tenantID uuid.UUID, name string, now time.Time) *Organization {
	return &Organization{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Status:    types.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (o *Organization) IsActive() bool { return o.Status == types.StatusActive }

func (o *Organization) ChangeStatus(next types.Status, now time.Time) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

func (o *Organization) Rename(name string, now time.Time) error {
	if o.Status == types.StatusDeleted {
		return ErrAlreadyDeleted
	}
	o.Name = name
	o.UpdatedAt = now
	return nil
}

type OrganizationFilter struct {
	TenantID *uuid.UUID
	Name     string
	Status   types.Status
	Filters
}

var OrganizationSortSafelist = []string{"created_at", "name", "-created_at", "-name"}
