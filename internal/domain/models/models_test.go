package models

import (
	"context"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenant_Lifecycle(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tenant := NewTenant("acme", created)
	assert.True(t, tenant.IsActive())

	later := created.Add(time.Hour)
	require.NoError(t, tenant.ChangeStatus(types.StatusInactive, later))
	assert.Equal(t, later, tenant.UpdatedAt)

	require.NoError(t, tenant.ChangeStatus(types.StatusDeleted, later))
	assert.ErrorIs(t, tenant.ChangeStatus(types.StatusActive, later), types.ErrInvalidTransition)
	assert.ErrorIs(t, tenant.ChangeStatus(types.StatusDeleted, later), types.ErrInvalidTransition)
	assert.ErrorIs(t, tenant.Rename("x", later), ErrAlreadyDeleted)
}

func TestUser_ProfileRequiresActive(t *testing.T) {
	u := &User{Status: types.StatusActive, Name: "old"}
	require.NoError(t, u.UpdateProfile("new", "", time.Now()))
	assert.Equal(t, "new", u.Name)

	require.NoError(t, u.ChangeStatus(types.StatusSuspended, time.Now()))
	assert.ErrorIs(t, u.UpdateProfile("again", "", time.Now()), ErrNotActive)
	assert.ErrorIs(t, u.ChangePassword("hash", time.Now()), ErrNotActive)
}

func TestParsePermissionKey(t *testing.T) {
	resource, action, err := ParsePermissionKey("user:read")
	require.NoError(t, err)
	assert.Equal(t, "user", resource)
	assert.Equal(t, "read", action)

	for _, bad := range []string{"user", "User:read", "user:", ":read", "user:read:all", "user read"} {
		_, _, err := ParsePermissionKey(bad)
		assert.ErrorIs(t, err, ErrInvalidPermissionKey, bad)
	}
}

func TestPermission_SystemIsImmutable(t *testing.T) {
	p, err := NewPermission(nil, "tenant:read", "", types.TypeSystem, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, p.Update("x", time.Now()), types.ErrSystemDefinition)
	assert.ErrorIs(t, p.Delete(time.Now()), types.ErrSystemDefinition)

	custom, err := NewPermission(nil, "invoice:read", "", types.TypeCustom, time.Now())
	require.NoError(t, err)
	require.NoError(t, custom.Delete(time.Now()))
	assert.ErrorIs(t, custom.Delete(time.Now()), ErrAlreadyDeleted)
	require.NoError(t, custom.Restore(time.Now()))
	assert.ErrorIs(t, custom.Restore(time.Now()), ErrNotDeleted)
}

func TestRole_Scope(t *testing.T) {
	tenantID := uuid.New()
	global := NewRole(nil, nil, "ADMIN", "", "", types.TypeCustom, time.Now())
	scoped := NewRole(&tenantID, nil, "ADMIN", "Admin", "", types.TypeCustom, time.Now())

	assert.Equal(t, types.ScopeGlobal, global.Scope())
	assert.Equal(t, "ADMIN", global.DisplayName)
	assert.Equal(t, types.ScopeTenant, scoped.Scope())

	system := NewRole(nil, nil, types.RoleSuperAdmin, "", "", types.TypeSystem, time.Now())
	assert.ErrorIs(t, system.Delete(time.Now()), types.ErrSystemDefinition)
}

func TestPrincipal(t *testing.T) {
	anon := PrincipalFromContext(context.Background())
	assert.False(t, anon.IsAuthenticated())
	assert.Equal(t, "anonymous", anon.LogID())
	assert.False(t, anon.HasPermission("user:read"))

	p := &Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}, Permissions: []string{"user:read"}}
	ctx := WithPrincipal(context.Background(), p)
	got := PrincipalFromContext(ctx)
	assert.True(t, got.IsSuperAdmin())
	assert.True(t, got.HasPermission("user:read"))
	assert.Equal(t, p.UserID.String(), got.LogID())
}

func TestFilters(t *testing.T) {
	f := NewFilters(0, 0, "", UserSortSafelist)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, "created_at", f.SortColumn())
	assert.Equal(t, "ASC", f.SortDirection())
	assert.Equal(t, 0, f.Offset())

	f = NewFilters(3, 10, "-email", UserSortSafelist)
	assert.Equal(t, "email", f.SortColumn())
	assert.Equal(t, "DESC", f.SortDirection())
	assert.Equal(t, 20, f.Offset())

	v := validator.New()
	NewFilters(-1, 500, "password", UserSortSafelist).Validate(v)
	assert.Contains(t, v.Errors, "page")
	assert.Contains(t, v.Errors, "page_size")
	assert.Contains(t, v.Errors, "sort")
}

func TestCalculateMetadata(t *testing.T) {
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 5, FirstPage: 1, LastPage: 3, TotalRecords: 12}, CalculateMetadata(12, 1, 5))
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 5}, CalculateMetadata(0, 1, 5))

	page := NewPage[int](nil, 0, NewFilters(1, 5, "", nil))
	assert.NotNil(t, page.Items)
}

func TestAuditFilter_ValidateRange(t *testing.T) {
	from := time.Now()
	to := from.Add(-time.Hour)
	assert.ErrorIs(t, AuditFilter{From: &from, To: &to}.ValidateRange(), ErrInvalidDateRange)
	assert.NoError(t, AuditFilter{From: &to, To: &from}.ValidateRange())
}
