package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatches(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/v1/users", "/api/v1/users", true},
		{"/api/v1/users", "/api/v1/roles", false},
		{"/api/v1/users/{id}", "/api/v1/users/123", true},
		{"/api/v1/users/{id}", "/api/v1/users/abc-def", true},
		{"/api/v1/users/{id}", "/api/v1/users/01941234-5678-7000-8000-123456789abc", true},
		{"/api/v1/users/{id}", "/api/v1/users/123/orders", false},
		{"/api/v1/users/{id}", "/api/v1/users/", false},
		{"/api/v1/organizations/{orgId}/members/{memberId}", "/api/v1/organizations/org123/members/member456", true},
		{"/api/v1/files/*", "/api/v1/files/report.pdf", true},
		{"/api/v1/files/*", "/api/v1/files/a/b", false},
		{"/api/v1/files/**", "/api/v1/files/a/b/c", true},
		{"/api/v1/v1.0/items", "/api/v1/v1x0/items", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternMatches(tt.pattern, tt.path))
		})
	}
}

func TestPatternToRegexp(t *testing.T) {
	assert.Equal(t, `^/api/[^/]+/x/[^/]*/.*$`, PatternToRegexp("/api/{v}/x/*/**"))
}

func TestPermissionEndpoint_Matches(t *testing.T) {
	e, err := NewPermissionEndpoint(uuid.New(), "billing", "/invoices/{id}", "get", "", false, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "GET", e.HTTPMethod)
	assert.True(t, e.Matches("GET", "/invoices/42"))
	assert.True(t, e.Matches("get", "/invoices/42"))
	assert.False(t, e.Matches("POST", "/invoices/42"))
	assert.Equal(t, "billing|/invoices/{id}|GET", e.Key())
}

func TestNewPermissionEndpoint_Validation(t *testing.T) {
	_, err := NewPermissionEndpoint(uuid.New(), "billing", "invoices", "GET", "", false, time.Now())
	assert.ErrorIs(t, err, ErrInvalidURLPattern)

	_, err = NewPermissionEndpoint(uuid.New(), "billing", "/invoices", "TRACE", "", false, time.Now())
	assert.ErrorIs(t, err, ErrInvalidHTTPMethod)
}

func TestPermissionEndpoint_Delete(t *testing.T) {
	e, err := NewPermissionEndpoint(uuid.New(), "billing", "/invoices", "GET", "", false, time.Now())
	require.NoError(t, err)

	require.NoError(t, e.Delete(time.Now()))
	assert.ErrorIs(t, e.Delete(time.Now()), ErrAlreadyDeleted)
	assert.ErrorIs(t, e.Update("/x", "", "", false, time.Now()), ErrAlreadyDeleted)
}
