package authhubclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/", ServiceToken: "svc-token", ServiceName: "billing"},
		WithBackOff(&backoff.ZeroBackOff{}))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		assert.Empty(t, r.Header.Get(headerServiceToken))
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":        map[string]any{"id": userID, "email": "a@b.kz", "status": "ACTIVE"},
			"roles":       []string{"USER"},
			"permissions": []string{"invoice:read"},
		})
	}))

	id, err := c.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, userID, id.User.ID)
	assert.Equal(t, []string{"invoice:read"}, id.Permissions)

	_, err = c.ValidateToken(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid token", apiErr.Message)

	_, err = c.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHasPermission(t *testing.T) {
	active, suspended, admin := uuid.New(), uuid.New(), uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "svc-token", r.Header.Get(headerServiceToken))
		assert.Equal(t, "billing", r.Header.Get(headerServiceName))

		up := map[string]any{"status": "ACTIVE", "permissions": []string{"invoice:read"}}
		switch r.URL.Path {
		case "/api/v1/internal/users/" + active.String() + "/permissions":
		case "/api/v1/internal/users/" + suspended.String() + "/permissions":
			up["status"] = "SUSPENDED"
		case "/api/v1/internal/users/" + admin.String() + "/permissions":
			up["roles"] = []string{"SUPER_ADMIN"}
			up["permissions"] = []string{}
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, up)
	}))
	ctx := context.Background()

	ok, err := c.HasPermission(ctx, active, "invoice:read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasPermission(ctx, active, "invoice:delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.HasPermission(ctx, suspended, "invoice:read")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.HasPermission(ctx, admin, "invoice:delete")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.HasPermission(ctx, uuid.New(), "invoice:read")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncEndpoints(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/internal/endpoints/sync", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SyncRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "billing", req.ServiceName)
		writeJSON(w, http.StatusOK, map[string]any{"result": SyncResult{
			ServiceName: req.ServiceName, Total: len(req.Endpoints), EndpointsCreated: len(req.Endpoints),
		}})
	}))

	res, err := c.SyncEndpoints(context.Background(), SyncRequest{Endpoints: []SyncEndpoint{
		{PermissionKey: "invoice:read", Path: "/invoices/{id}", Method: "GET"},
		{PermissionKey: "invoice:create", Path: "/invoices", Method: "POST"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.EndpointsCreated)
}

func TestValidatePermissions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ServiceName    string   `json:"service_name"`
			PermissionKeys []string `json:"permission_keys"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "billing", req.ServiceName)
		writeJSON(w, http.StatusOK, PermissionValidation{Valid: false, Existing: req.PermissionKeys[:1], Missing: req.PermissionKeys[1:]})
	}))

	pv, err := c.ValidatePermissions(context.Background(), []string{"invoice:read", "invoice:void"})
	require.NoError(t, err)
	assert.False(t, pv.Valid)
	assert.Equal(t, []string{"invoice:void"}, pv.Missing)
}

func TestSpec_RevalidatesWithETag(t *testing.T) {
	var full, notModified atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		full.Add(1)
		w.Header().Set("ETag", `"v1"`)
		writeJSON(w, http.StatusOK, Spec{Version: "v1", Endpoints: []Endpoint{{PermissionKey: "invoice:read"}}})
	}))

	first, err := c.Spec(context.Background())
	require.NoError(t, err)
	second, err := c.Spec(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), full.Load())
	assert.Equal(t, int32(1), notModified.Load())
	assert.Len(t, second.Endpoints, 1)
}

func TestMatchEndpoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "billing", q.Get("service"))
		assert.Equal(t, "GET", q.Get("method"))
		if q.Get("path") != "/invoices/42" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "no endpoint matches the request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"endpoint": Endpoint{PermissionKey: "invoice:read", URLPattern: "/invoices/{id}"}})
	}))

	ep, err := c.MatchEndpoint(context.Background(), "get", "/invoices/42")
	require.NoError(t, err)
	assert.Equal(t, "invoice:read", ep.PermissionKey)

	_, err = c.MatchEndpoint(context.Background(), "GET", "/nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTenantConfig(t *testing.T) {
	tenantID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/internal/tenants/"+tenantID.String()+"/config", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"tenant": TenantConfig{TenantID: tenantID, Active: true, Services: []string{"SVC_BILLING"}}})
	}))

	cfg, err := c.TenantConfig(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, cfg.Active)
	assert.Equal(t, []string{"SVC_BILLING"}, cfg.Services)
}

func TestRetries(t *testing.T) {
	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "degraded"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tenant": TenantConfig{Active: true}})
		}))

		cfg, err := c.TenantConfig(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.True(t, cfg.Active)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
		}))

		_, err := c.TenantConfig(context.Background(), uuid.New())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, int32(defaultMaxRetries), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": map[string]string{"endpoints": "too many"}})
		}))

		_, err := c.SyncEndpoints(context.Background(), SyncRequest{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
}
