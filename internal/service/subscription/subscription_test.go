package subscription

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo map[uuid.UUID]*models.Subscription

func (m memRepo) Create(_ context.Context, s *models.Subscription) error {
	for _, existing := range m {
		if existing.TenantID == s.TenantID && existing.ServiceID == s.ServiceID {
			return types.ErrConflict
		}
	}
	m[s.ID] = s
	return nil
}

func (m memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	s, ok := m[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memRepo) List(_ context.Context, f models.SubscriptionFilter) ([]*models.Subscription, int, error) {
	var out []*models.Subscription
	for _, s := range m {
		if f.TenantID != nil && s.TenantID != *f.TenantID {
			continue
		}
		if f.ServiceID != nil && s.ServiceID != *f.ServiceID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m memRepo) Update(_ context.Context, s *models.Subscription) error {
	m[s.ID] = s
	return nil
}

type memTenants map[uuid.UUID]*models.Tenant

func (m memTenants) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := m[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t, nil
}

type memServices map[uuid.UUID]*models.Service

func (m memServices) GetByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return s, nil
}

type nopPublisher struct{ events []models.Event }

func (p *nopPublisher) Publish(_ context.Context, e models.Event) { p.events = append(p.events, e) }

type fixture struct {
	svc      *SubscriptionService
	repo     memRepo
	pub      *nopPublisher
	tenant   *models.Tenant
	billing  *models.Service
	crm      *models.Service
	retired  *models.Service
	inactive *models.Tenant
}

func newFixture() *fixture {
	now := time.Now().UTC()
	f := &fixture{
		repo:     memRepo{},
		pub:      &nopPublisher{},
		tenant:   models.NewTenant("acme", now),
		inactive: models.NewTenant("dormant", now),
		billing:  models.NewService("BILLING", "Billing", "", now),
		crm:      models.NewService("CRM", "CRM", "", now),
		retired:  models.NewService("LEGACY", "Legacy", "", now),
	}
	f.inactive.Status = types.StatusInactive
	f.retired.Status = types.ServiceInactive

	tenants := memTenants{f.tenant.ID: f.tenant, f.inactive.ID: f.inactive}
	services := memServices{f.billing.ID: f.billing, f.crm.ID: f.crm, f.retired.ID: f.retired}
	f.svc = NewSubscriptionService(f.repo, tenants, services, f.pub, logger.New(io.Discard, "test", logger.LevelError))
	return f
}

func asSuperAdmin() context.Context {
	return models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}})
}

func asMember(tenantID uuid.UUID, perms ...string) context.Context {
	return models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), TenantID: tenantID, Permissions: perms})
}

func TestSubscribe(t *testing.T) {
	f := newFixture()
	admin := asSuperAdmin()

	sub, err := f.svc.Subscribe(admin, f.tenant.ID, f.billing.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, sub.Status)
	assert.Equal(t, "BILLING", sub.ServiceCode)
	assert.False(t, sub.SubscribedAt.IsZero())
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, models.EventSubscriptionChanged, f.pub.events[0].Name)
	assert.Equal(t, "ACTIVE", f.pub.events[0].Payload["status"])

	tests := []struct {
		name      string
		ctx       context.Context
		tenantID  uuid.UUID
		serviceID uuid.UUID
		err       error
	}{
		{"duplicate pair", admin, f.tenant.ID, f.billing.ID, types.ErrConflict},
		{"inactive tenant", admin, f.inactive.ID, f.crm.ID, ErrTenantNotActive},
		{"inactive service", admin, f.tenant.ID, f.retired.ID, ErrServiceNotActive},
		{"unknown tenant", admin, uuid.New(), f.crm.ID, types.ErrNotFound},
		{"unknown service", admin, f.tenant.ID, uuid.New(), types.ErrNotFound},
		{"tenant member", asMember(f.tenant.ID, "tenant:update"), f.tenant.ID, f.crm.ID, types.ErrAccessDenied},
		{"anonymous", context.Background(), f.tenant.ID, f.crm.ID, types.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Subscribe(tt.ctx, tt.tenantID, tt.serviceID)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Len(t, f.repo, 1)
}

func TestChangeStatus_Transitions(t *testing.T) {
	f := newFixture()
	admin := asSuperAdmin()

	sub, err := f.svc.Subscribe(admin, f.tenant.ID, f.billing.ID)
	require.NoError(t, err)

	steps := []struct {
		to  types.Status
		err error
	}{
		{types.StatusSuspended, nil},
		{types.StatusSuspended, types.ErrInvalidTransition},
		{types.StatusInactive, nil},
		{types.StatusSuspended, types.ErrInvalidTransition},
		{types.StatusActive, nil},
		{types.StatusDeleted, types.ErrInvalidTransition},
		{types.StatusInactive, nil},
	}
	for _, step := range steps {
		got, err := f.svc.ChangeStatus(admin, sub.ID, step.to)
		if step.err != nil {
			assert.ErrorIs(t, err, step.err, "to %s", step.to)
			continue
		}
		require.NoError(t, err, "to %s", step.to)
		assert.Equal(t, step.to, got.Status)
		assert.Equal(t, step.to, f.repo[sub.ID].Status)
	}
	// one event for the subscribe plus one per accepted transition
	assert.Len(t, f.pub.events, 5)

	_, err = f.svc.ChangeStatus(asMember(f.tenant.ID, "tenant:update"), sub.ID, types.StatusActive)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	_, err = f.svc.ChangeStatus(admin, uuid.New(), types.StatusActive)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetAndList_TenantScope(t *testing.T) {
	f := newFixture()
	admin := asSuperAdmin()
	other := models.NewTenant("globex", time.Now())

	mine, err := f.svc.Subscribe(admin, f.tenant.ID, f.billing.ID)
	require.NoError(t, err)
	theirs := models.NewSubscription(other.ID, f.crm.ID, time.Now())
	require.NoError(t, f.repo.Create(context.Background(), theirs))

	reader := asMember(f.tenant.ID, "tenant:read")

	got, err := f.svc.Get(reader, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.svc.Get(reader, theirs.ID)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	_, err = f.svc.Get(asMember(f.tenant.ID), mine.ID)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	filter := models.SubscriptionFilter{Filters: models.NewFilters(1, 20, "", models.SubscriptionSortSafelist)}

	page, err := f.svc.List(admin, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Metadata.TotalRecords)

	// a member asking for another tenant still only sees their own
	filter.TenantID = &other.ID
	page, err = f.svc.List(reader, filter)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	_, err = f.svc.List(context.Background(), filter)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	from, to := time.Now(), time.Now().Add(-time.Hour)
	_, err = f.svc.List(admin, models.SubscriptionFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
}

func TestForTenant(t *testing.T) {
	f := newFixture()
	admin := asSuperAdmin()

	billing, err := f.svc.Subscribe(admin, f.tenant.ID, f.billing.ID)
	require.NoError(t, err)
	crm, err := f.svc.Subscribe(admin, f.tenant.ID, f.crm.ID)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(admin, crm.ID, types.StatusSuspended)
	require.NoError(t, err)

	subs, err := f.svc.ForTenant(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, billing.ID, subs[0].ID)

	subs, err = f.svc.ForTenant(context.Background(), f.inactive.ID)
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	_, err = f.svc.ForTenant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}
