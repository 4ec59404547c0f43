package models

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

// Subscription links a tenant to a registered service it may use.
type Subscription struct {
	ID           uuid.UUID    `json:"id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	ServiceID    uuid.UUID    `json:"service_id"`
	ServiceCode  string       `json:"service_code,omitempty"`
	Status       types.Status `json:"status"`
	SubscribedAt time.Time    `json:"subscribed_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func NewSubscription(tenantID, serviceID uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ServiceID:    serviceID,
		Status:       types.StatusActive,
		SubscribedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Subscription) IsActive() bool { return s.Status == types.StatusActive }

func (s *Subscription) ChangeStatus(next types.Status, now time.Time) error {
	if !s.Status.CanSubscriptionTransition(next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

func (s *Subscription) Activate(now time.Time) error   { return s.ChangeStatus(types.StatusActive, now) }
func (s *Subscription) Deactivate(now time.Time) error { return s.ChangeStatus(types.StatusInactive, now) }
func (s *Subscription) Suspend(now time.Time) error    { return s.ChangeStatus(types.StatusSuspended, now) }

type SubscriptionFilter struct {
	TenantID  *uuid.UUID
	ServiceID *uuid.UUID
	Statuses  []types.Status
	// From and To bound subscribed_at, both inclusive.
	From *time.Time
	To   *time.Time
	Filters
}

func (f SubscriptionFilter) ValidateRange() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidDateRange
	}
	return nil
}

var SubscriptionSortSafelist = []string{"subscribed_at", "created_at", "-subscribed_at", "-created_at"}
