package authhubclient

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
}

// Identity is what a valid access token resolves to.
type Identity struct {
	User        User     `json:"user"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type UserPermissions struct {
	UserID      uuid.UUID `json:"user_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Status      string    `json:"status"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}

type PermissionValidation struct {
	Valid    bool     `json:"valid"`
	Existing []string `json:"existing"`
	Missing  []string `json:"missing"`
}

type Endpoint struct {
	ID            uuid.UUID `json:"id"`
	PermissionKey string    `json:"permission_key"`
	ServiceName   string    `json:"service_name"`
	URLPattern    string    `json:"url_pattern"`
	HTTPMethod    string    `json:"http_method"`
	Description   string    `json:"description"`
	IsPublic      bool      `json:"is_public"`
}

// Spec is the endpoint to permission snapshot. Version changes whenever any
// endpoint does.
type Spec struct {
	Version   string     `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
	Endpoints []Endpoint `json:"endpoints"`
}

type SyncEndpoint struct {
	PermissionKey string `json:"permission_key"`
	Path          string `json:"path"`
	Method        string `json:"method"`
	Description   string `json:"description"`
	IsPublic      bool   `json:"is_public"`
}

type SyncRequest struct {
	ServiceName string         `json:"service_name"`
	ServiceCode string         `json:"service_code,omitempty"`
	Endpoints   []SyncEndpoint `json:"endpoints"`
}

type SyncResult struct {
	ServiceName        string `json:"service_name"`
	Total              int    `json:"total"`
	PermissionsCreated int    `json:"permissions_created"`
	EndpointsCreated   int    `json:"endpoints_created"`
	EndpointsSkipped   int    `json:"endpoints_skipped"`
	MappingsCreated    int    `json:"mappings_created"`
}

type TenantConfig struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Active   bool      `json:"active"`
	Services []string  `json:"services"`
}
