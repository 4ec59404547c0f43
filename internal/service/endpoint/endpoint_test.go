package endpoint

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/Temutjin2k/authhub/pkg/trm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDB struct {
	endpoints   map[uuid.UUID]*models.PermissionEndpoint
	permissions map[uuid.UUID]*models.Permission
	services    map[string]*models.Service
	roles       []*models.Role
	grants      map[uuid.UUID][]uuid.UUID
}

func newMemDB() *memDB {
	return &memDB{
		endpoints:   make(map[uuid.UUID]*models.PermissionEndpoint),
		permissions: make(map[uuid.UUID]*models.Permission),
		services:    make(map[string]*models.Service),
		grants:      make(map[uuid.UUID][]uuid.UUID),
	}
}

type endpointRepo struct{ db *memDB }

func (r endpointRepo) Create(_ context.Context, ep *models.PermissionEndpoint) error {
	for _, e := range r.db.endpoints {
		if !e.Deleted && e.Key() == ep.Key() {
			return types.ErrConflict
		}
	}
	r.db.endpoints[ep.ID] = ep
	return nil
}

func (r endpointRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PermissionEndpoint, error) {
	ep, ok := r.db.endpoints[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *ep
	return &cp, nil
}

func (r endpointRepo) List(_ context.Context, _ models.EndpointFilter) ([]*models.PermissionEndpoint, int, error) {
	out, _ := r.ListActive(context.Background(), "")
	return out, len(out), nil
}

func (r endpointRepo) Update(_ context.Context, ep *models.PermissionEndpoint) error {
	r.db.endpoints[ep.ID] = ep
	return nil
}

func (r endpointRepo) ListActive(_ context.Context, service string) ([]*models.PermissionEndpoint, error) {
	var out []*models.PermissionEndpoint
	for _, ep := range r.db.endpoints {
		if ep.Deleted || (service != "" && ep.ServiceName != service) {
			continue
		}
		cp := *ep
		cp.PermissionKey = r.db.permissions[ep.PermissionID].Key
		out = append(out, &cp)
	}
	return out, nil
}

type permRepo struct{ db *memDB }

func (r permRepo) Create(_ context.Context, p *models.Permission) error {
	r.db.permissions[p.ID] = p
	return nil
}

func (r permRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Permission, error) {
	if p, ok := r.db.permissions[id]; ok {
		return p, nil
	}
	return nil, types.ErrNotFound
}

func (r permRepo) GetByKeys(_ context.Context, keys []string) ([]*models.Permission, error) {
	var out []*models.Permission
	for _, p := range r.db.permissions {
		if slices.Contains(keys, p.Key) {
			out = append(out, p)
		}
	}
	return out, nil
}

type serviceRepo struct{ db *memDB }

func (r serviceRepo) GetByCode(_ context.Context, code string) (*models.Service, error) {
	if s, ok := r.db.services[code]; ok {
		return s, nil
	}
	return nil, types.ErrNotFound
}

type roleRepo struct{ db *memDB }

func (r roleRepo) FindServiceRole(_ context.Context, serviceID uuid.UUID, name string) (*models.Role, error) {
	for _, role := range r.db.roles {
		if role.ServiceID != nil && *role.ServiceID == serviceID && role.TenantID == nil && role.Name == name {
			return role, nil
		}
	}
	return nil, nil
}

type grantRepo struct{ db *memDB }

func (r grantRepo) GrantPermissions(_ context.Context, roleID uuid.UUID, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		if !slices.Contains(r.db.grants[roleID], id) {
			r.db.grants[roleID] = append(r.db.grants[roleID], id)
			n++
		}
	}
	return n, nil
}

func newService(db *memDB) *EndpointService {
	return NewEndpointService(endpointRepo{db}, permRepo{db}, serviceRepo{db}, roleRepo{db}, grantRepo{db},
		trm.Noop{}, logger.New(io.Discard, "test", logger.LevelError))
}

func (db *memDB) addServiceRoles(code string, names ...string) (*models.Service, map[string]*models.Role) {
	svc := models.NewService(code, "billing", "", time.Now())
	db.services[code] = svc
	roles := make(map[string]*models.Role)
	for _, n := range names {
		r := models.NewRole(nil, &svc.ID, n, "", "", types.TypeSystem, time.Now())
		db.roles = append(db.roles, r)
		roles[n] = r
	}
	return svc, roles
}

func TestSync_CreatesAndDeduplicates(t *testing.T) {
	db := newMemDB()
	svc := newService(db)

	existing, _ := models.NewPermission(nil, "invoice:read", "", types.TypeCustom, time.Now())
	db.permissions[existing.ID] = existing

	res, err := svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		Endpoints: []models.SyncItem{
			{PermissionKey: "invoice:read", Path: "/invoices", Method: "get"},
			{PermissionKey: "invoice:read", Path: "/invoices/{id}", Method: "GET"},
			{PermissionKey: "Invoice:Create", Path: "/invoices", Method: "POST", Description: "first"},
			{PermissionKey: "invoice:create", Path: "/invoices/import", Method: "POST", Description: "second"},
			{PermissionKey: "invoice:create", Path: "/invoices", Method: "post"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "billing", res.ServiceName)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 1, res.PermissionsCreated)
	assert.Equal(t, 4, res.EndpointsCreated)
	assert.Equal(t, 1, res.EndpointsSkipped)
	assert.Equal(t, 0, res.MappingsCreated)

	perms, _ := permRepo{db}.GetByKeys(context.Background(), []string{"invoice:create"})
	require.Len(t, perms, 1)
	assert.Equal(t, "first", perms[0].Description)

	// A second sync of the same inventory changes nothing.
	res, err = svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		Endpoints:   []models.SyncItem{{PermissionKey: "invoice:read", Path: "/invoices", Method: "GET"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.PermissionsCreated)
	assert.Equal(t, 0, res.EndpointsCreated)
	assert.Equal(t, 1, res.EndpointsSkipped)
}

func TestSync_RejectsInvalidItems(t *testing.T) {
	svc := newService(newMemDB())

	_, err := svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		Endpoints:   []models.SyncItem{{PermissionKey: "invoice", Path: "/x", Method: "GET"}},
	})
	assert.ErrorIs(t, err, models.ErrInvalidPermissionKey)

	_, err = svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		Endpoints:   []models.SyncItem{{PermissionKey: "invoice:read", Path: "/x", Method: "TRACE"}},
	})
	assert.ErrorIs(t, err, models.ErrInvalidHTTPMethod)

	_, err = svc.Sync(context.Background(), models.SyncRequest{ServiceName: " "})
	assert.ErrorIs(t, err, ErrEmptyServiceName)

	res, err := svc.Sync(context.Background(), models.SyncRequest{ServiceName: "billing"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestSync_MapsRolesByAction(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	_, roles := db.addServiceRoles("SVC_BILLING", roleAdmin, roleEditor, roleViewer)

	res, err := svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		ServiceCode: "SVC_BILLING",
		Endpoints: []models.SyncItem{
			{PermissionKey: "invoice:read", Path: "/invoices", Method: "GET"},
			{PermissionKey: "invoice:update", Path: "/invoices/{id}", Method: "PUT"},
			{PermissionKey: "invoice:delete", Path: "/invoices/{id}", Method: "DELETE"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.PermissionsCreated)
	// admin 3 + editor 2 + viewer 1
	assert.Equal(t, 6, res.MappingsCreated)
	assert.Len(t, db.grants[roles[roleAdmin].ID], 3)
	assert.Len(t, db.grants[roles[roleEditor].ID], 2)
	assert.Len(t, db.grants[roles[roleViewer].ID], 1)
}

func TestSync_SkipsMappingWithoutAdmin(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	db.addServiceRoles("SVC_BILLING", roleViewer)

	res, err := svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		ServiceCode: "SVC_BILLING",
		Endpoints:   []models.SyncItem{{PermissionKey: "invoice:read", Path: "/invoices", Method: "GET"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.MappingsCreated)

	res, err = svc.Sync(context.Background(), models.SyncRequest{
		ServiceName: "billing",
		ServiceCode: "SVC_UNKNOWN",
		Endpoints:   []models.SyncItem{{PermissionKey: "invoice:list", Path: "/invoices/all", Method: "GET"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PermissionsCreated)
	assert.Equal(t, 0, res.MappingsCreated)
}

func TestTargetRoles(t *testing.T) {
	assert.Equal(t, []string{roleAdmin, roleEditor, roleViewer}, TargetRoles("SEARCH"))
	assert.Equal(t, []string{roleAdmin, roleEditor}, TargetRoles("edit"))
	assert.Equal(t, []string{roleAdmin}, TargetRoles("delete"))
	assert.Equal(t, []string{roleAdmin}, TargetRoles("approve"))
}

func TestSpecAndMatch(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	ctx := context.Background()

	empty, err := svc.Spec(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty.Endpoints)

	_, err = svc.Sync(ctx, models.SyncRequest{
		ServiceName: "billing",
		Endpoints: []models.SyncItem{
			{PermissionKey: "invoice:read", Path: "/invoices/{id}", Method: "GET"},
			{PermissionKey: "invoice:list", Path: "/invoices/**", Method: "GET"},
			{PermissionKey: "invoice:export", Path: "/invoices/{id}/export", Method: "GET"},
		},
	})
	require.NoError(t, err)

	spec1, err := svc.Spec(ctx)
	require.NoError(t, err)
	spec2, err := svc.Spec(ctx)
	require.NoError(t, err)
	assert.Len(t, spec1.Endpoints, 3)
	assert.Equal(t, spec1.Version, spec2.Version)
	assert.NotEqual(t, empty.Version, spec1.Version)
	assert.False(t, spec1.UpdatedAt.IsZero())

	ep, err := svc.Match(ctx, "billing", "get", "/invoices/42/export")
	require.NoError(t, err)
	assert.Equal(t, "invoice:export", ep.PermissionKey)

	ep, err = svc.Match(ctx, "billing", "GET", "/invoices/42")
	require.NoError(t, err)
	assert.Equal(t, "invoice:read", ep.PermissionKey)

	_, err = svc.Match(ctx, "billing", "POST", "/invoices/42")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestCRUDRequiresPermissions(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	perm, _ := models.NewPermission(nil, "invoice:read", "", types.TypeCustom, time.Now())
	db.permissions[perm.ID] = perm

	editor := models.WithPrincipal(context.Background(), &models.Principal{
		UserID:      uuid.New(),
		Permissions: []string{"permission:create", "permission:update", "permission:delete"},
	})
	viewer := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New()})

	_, err := svc.Create(viewer, CreateRequest{PermissionID: perm.ID, ServiceName: "billing", URLPattern: "/x", HTTPMethod: "GET"})
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	ep, err := svc.Create(editor, CreateRequest{PermissionID: perm.ID, ServiceName: "billing", URLPattern: "/x", HTTPMethod: "get"})
	require.NoError(t, err)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "invoice:read", ep.PermissionKey)

	_, err = svc.Create(editor, CreateRequest{PermissionID: perm.ID, ServiceName: "billing", URLPattern: "x", HTTPMethod: "GET"})
	assert.ErrorIs(t, err, models.ErrInvalidURLPattern)

	ep, err = svc.Update(editor, ep.ID, UpdateRequest{URLPattern: "/y", Description: "moved"})
	require.NoError(t, err)
	assert.Equal(t, "/y", ep.URLPattern)

	page, err := svc.List(viewer, models.EndpointFilter{Filters: models.NewFilters(1, 10, "", models.EndpointSortSafelist)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = svc.Delete(editor, ep.ID)
	require.NoError(t, err)
	_, err = svc.Delete(editor, ep.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyDeleted)
}
