package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain event names, published with routing key "event.<name>".
const (
	EventTenantCreated          = "tenant.created"
	EventUserCreated            = "user.created"
	EventUserStatusChanged      = "user.status_changed"
	EventUserRolesChanged       = "user.roles_changed"
	EventRolePermissionsChanged = "role.permissions_changed"
	EventTokenRevoked           = "token.revoked"
	EventSubscriptionChanged    = "tenant_service.changed"
)

type Event struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

func NewEvent(name string, payload map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type OnboardingResult struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// TenantConfig is the view of a tenant internal services cache.
type TenantConfig struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Active   bool      `json:"active"`
	Services []string  `json:"services"`
}

type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}
