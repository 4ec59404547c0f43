package organization

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	tenants map[uuid.UUID]*models.Tenant
	orgs    map[uuid.UUID]*models.Organization
}

func (m *memStore) Create(_ context.Context, o *models.Organization) error {
	for _, existing := range m.orgs {
		if existing.TenantID == o.TenantID && existing.Name == o.Name {
			return types.ErrConflict
		}
	}
	m.orgs[o.ID] = o
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) List(_ context.Context, f models.OrganizationFilter) ([]*models.Organization, int, error) {
	var out []*models.Organization
	for _, o := range m.orgs {
		if f.TenantID != nil && o.TenantID != *f.TenantID {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *memStore) Update(_ context.Context, o *models.Organization) error {
	m.orgs[o.ID] = o
	return nil
}

type tenantStore struct{ m *memStore }

func (t tenantStore) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	tn, ok := t.m.tenants[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return tn, nil
}

func setup(t *testing.T) (*OrganizationService, *memStore, *models.Tenant) {
	t.Helper()
	store := &memStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
		orgs:    make(map[uuid.UUID]*models.Organization),
	}
	tenant := models.NewTenant("Acme", time.Now())
	store.tenants[tenant.ID] = tenant
	svc := NewOrganizationService(store, tenantStore{store}, logger.New(io.Discard, "test", logger.LevelError))
	return svc, store, tenant
}

func tenantAdmin(tenantID uuid.UUID) context.Context {
	return models.WithPrincipal(context.Background(), &models.Principal{
		UserID:      uuid.New(),
		TenantID:    tenantID,
		Roles:       []string{types.RoleTenantAdmin},
		Permissions: []string{"organization:create", "organization:read", "organization:update"},
	})
}

func TestCreate(t *testing.T) {
	svc, store, tenant := setup(t)
	ctx := tenantAdmin(tenant.ID)

	org, err := svc.Create(ctx, tenant.ID, "HQ")
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, org.Status)

	_, err = svc.Create(ctx, tenant.ID, "HQ")
	assert.ErrorIs(t, err, types.ErrConflict)

	_, err = svc.Create(ctx, uuid.New(), "Elsewhere")
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	store.tenants[tenant.ID].Status = types.StatusInactive
	_, err = svc.Create(ctx, tenant.ID, "Branch")
	assert.ErrorIs(t, err, ErrTenantNotActive)
}

func TestDeleteRequiresDeletePermission(t *testing.T) {
	svc, _, tenant := setup(t)
	ctx := tenantAdmin(tenant.ID)

	org, err := svc.Create(ctx, tenant.ID, "HQ")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, org.ID)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	org, err = svc.ChangeStatus(ctx, org.ID, types.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInactive, org.Status)

	admin := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}})
	org, err = svc.Delete(admin, org.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeleted, org.Status)

	_, err = svc.Rename(admin, org.ID, "Renamed")
	assert.ErrorIs(t, err, models.ErrAlreadyDeleted)
}

func TestListIsTenantScoped(t *testing.T) {
	svc, store, tenant := setup(t)
	other := models.NewOrganization(uuid.New(), "Other", time.Now())
	store.orgs[other.ID] = other

	_, err := svc.Create(tenantAdmin(tenant.ID), tenant.ID, "HQ")
	require.NoError(t, err)

	page, err := svc.List(tenantAdmin(tenant.ID), models.OrganizationFilter{
		Filters: models.NewFilters(1, 10, "", models.OrganizationSortSafelist),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "HQ", page.Items[0].Name)
}
