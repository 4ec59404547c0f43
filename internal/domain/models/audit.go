package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionLogin        ActionType = "LOGIN"
	ActionLoginFailed  ActionType = "LOGIN_FAILED"
	ActionLogout       ActionType = "LOGOUT"
	ActionTokenRefresh ActionType = "TOKEN_REFRESH"
	ActionCreate       ActionType = "CREATE"
	ActionRead         ActionType = "READ"
	ActionUpdate       ActionType = "UPDATE"
	ActionDelete       ActionType = "DELETE"
	ActionAccessDenied ActionType = "ACCESS_DENIED"
)

var ActionTypes = []ActionType{
	ActionLogin, ActionLoginFailed, ActionLogout, ActionTokenRefresh,
	ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAccessDenied,
}

type ResourceType string

const (
	ResourceAuth         ResourceType = "AUTH"
	ResourceTenant       ResourceType = "TENANT"
	ResourceOrganization ResourceType = "ORGANIZATION"
	ResourceUser         ResourceType = "USER"
	ResourceRole         ResourceType = "ROLE"
	ResourcePermission   ResourceType = "PERMISSION"
	ResourceEndpoint     ResourceType = "ENDPOINT"
	ResourceService      ResourceType = "SERVICE"
	ResourceAudit        ResourceType = "AUDIT"
	ResourceSystem       ResourceType = "SYSTEM"
)

var ResourceTypes = []ResourceType{
	ResourceAuth, ResourceTenant, ResourceOrganization, ResourceUser, ResourceRole,
	ResourcePermission, ResourceEndpoint, ResourceService, ResourceAudit, ResourceSystem,
}

type AuditLog struct {
	ID           uuid.UUID    `json:"id"`
	UserID       string       `json:"user_id"`
	ActionType   ActionType   `json:"action_type"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   string       `json:"resource_id,omitempty"`
	IP           string       `json:"ip"`
	UserAgent    string       `json:"user_agent"`
	Method       string       `json:"method,omitempty"`
	Endpoint     string       `json:"endpoint,omitempty"`
	Status       int          `json:"status,omitempty"`
	DurationMs   int64        `json:"duration_ms"`
	RequestID    string       `json:"request_id,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

var ErrInvalidDateRange = errors.New("from must not be after to")

type AuditFilter struct {
	UserID       string
	ActionType   ActionType
	ResourceType ResourceType
	ResourceID   string
	IP           string
	From         *time.Time
	To           *time.Time
	Filters
}

func (f AuditFilter) ValidateRange() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidDateRange
	}
	return nil
}

var AuditSortSafelist = []string{"-occurred_at", "occurred_at"}
