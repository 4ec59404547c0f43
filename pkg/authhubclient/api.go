package authhubclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const superAdminRole = "SUPER_ADMIN"

// ValidateToken resolves a user's access token. Expired, revoked and forged
// tokens fail with ErrUnauthorized.
func (c *Client) ValidateToken(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}
	var id Identity
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: "/api/v1/auth/me", bearer: accessToken}, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Client) UserPermissions(ctx context.Context, userID uuid.UUID) (*UserPermissions, error) {
	var up UserPermissions
	path := "/api/v1/internal/users/" + userID.String() + "/permissions"
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: path}, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// HasPermission reports whether userID holds key. Super admins hold every
// permission; users that are not ACTIVE hold none.
func (c *Client) HasPermission(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	up, err := c.UserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	if up.Status != "ACTIVE" {
		return false, nil
	}
	return slices.Contains(up.Roles, superAdminRole) || slices.Contains(up.Permissions, key), nil
}

// ValidatePermissions reports which of keys exist in AuthHub.
func (c *Client) ValidatePermissions(ctx context.Context, keys []string) (*PermissionValidation, error) {
	body := map[string]any{"service_name": c.cfg.ServiceName, "permission_keys": keys}
	var pv PermissionValidation
	if err := c.getJSON(ctx, request{method: http.MethodPost, path: "/api/v1/internal/permissions/validate", body: body}, &pv); err != nil {
		return nil, err
	}
	return &pv, nil
}

// SyncEndpoints reports the caller's endpoint inventory. An empty
// ServiceName defaults to the configured one.
func (c *Client) SyncEndpoints(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if req.ServiceName == "" {
		req.ServiceName = c.cfg.ServiceName
	}
	var out struct {
		Result SyncResult `json:"result"`
	}
	if err := c.getJSON(ctx, request{method: http.MethodPost, path: "/api/v1/internal/endpoints/sync", body: req}, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// Spec returns the endpoint permission snapshot. The last snapshot is kept
// and revalidated with If-None-Match, so an unchanged spec costs a 304.
func (c *Client) Spec(ctx context.Context) (*Spec, error) {
	c.mu.Lock()
	cached := c.spec
	c.mu.Unlock()

	req := request{method: http.MethodGet, path: "/api/v1/internal/endpoint-permissions/spec"}
	if cached != nil {
		req.headers = map[string]string{"If-None-Match": `"` + cached.Version + `"`}
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.status == http.StatusNotModified && cached != nil {
		return cached, nil
	}

	var spec Spec
	if err := decode(res.body, &spec); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.spec = &spec
	c.mu.Unlock()
	return &spec, nil
}

// MatchEndpoint finds the endpoint of the configured service a request hits.
// It fails with ErrNoMatch when no pattern matches.
func (c *Client) MatchEndpoint(ctx context.Context, method, path string) (*Endpoint, error) {
	q := url.Values{}
	q.Set("method", strings.ToUpper(method))
	q.Set("path", path)
	if c.cfg.ServiceName != "" {
		q.Set("service", c.cfg.ServiceName)
	}

	var out struct {
		Endpoint Endpoint `json:"endpoint"`
	}
	err := c.getJSON(ctx, request{method: http.MethodGet, path: "/api/v1/internal/endpoints/match", query: q}, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &out.Endpoint, nil
}

func (c *Client) TenantConfig(ctx context.Context, tenantID uuid.UUID) (*TenantConfig, error) {
	var out struct {
		Tenant TenantConfig `json:"tenant"`
	}
	path := "/api/v1/internal/tenants/" + tenantID.String() + "/config"
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out.Tenant, nil
}
