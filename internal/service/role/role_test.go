package role

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
	roles       map[uuid.UUID]*models.Role
	permissions map[uuid.UUID]*models.Permission
	users       map[uuid.UUID]*models.User
	rolePerms   map[uuid.UUID][]uuid.UUID
	userRoles   map[uuid.UUID][]uuid.UUID
	events      []string
}

func newMemDB() *memDB {
	return &memDB{
		roles:       make(map[uuid.UUID]*models.Role),
		permissions: make(map[uuid.UUID]*models.Permission),
		users:       make(map[uuid.UUID]*models.User),
		rolePerms:   make(map[uuid.UUID][]uuid.UUID),
		userRoles:   make(map[uuid.UUID][]uuid.UUID),
	}
}

type roleRepo struct{ db *memDB }

func (r roleRepo) Create(_ context.Context, role *models.Role) error {
	for _, existing := range r.db.roles {
		if existing.Name == role.Name && !existing.Deleted && sameTenant(existing.TenantID, role.TenantID) {
			return types.ErrConflict
		}
	}
	r.db.roles[role.ID] = role
	return nil
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r roleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Role, error) {
	role, ok := r.db.roles[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r roleRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Role, error) {
	var out []*models.Role
	for _, id := range ids {
		if role, ok := r.db.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r roleRepo) List(_ context.Context, f models.RoleFilter) ([]*models.Role, int, error) {
	var out []*models.Role
	for _, role := range r.db.roles {
		if f.TenantID != nil {
			if role.TenantID == nil && !f.WithGlobal {
				continue
			}
			if role.TenantID != nil && *role.TenantID != *f.TenantID {
				continue
			}
		}
		out = append(out, role)
	}
	return out, len(out), nil
}

func (r roleRepo) Update(_ context.Context, role *models.Role) error {
	r.db.roles[role.ID] = role
	return nil
}

type grantRepo struct{ db *memDB }

func link(m map[uuid.UUID][]uuid.UUID, owner uuid.UUID, ids []uuid.UUID) int {
	n := 0
	for _, id := range ids {
		if !slices.Contains(m[owner], id) {
			m[owner] = append(m[owner], id)
			n++
		}
	}
	return n
}

func unlink(m map[uuid.UUID][]uuid.UUID, owner uuid.UUID, ids []uuid.UUID) int {
	before := len(m[owner])
	m[owner] = slices.DeleteFunc(m[owner], func(id uuid.UUID) bool { return slices.Contains(ids, id) })
	return before - len(m[owner])
}

func (g grantRepo) GrantPermissions(_ context.Context, roleID uuid.UUID, ids []uuid.UUID) (int, error) {
	return link(g.db.rolePerms, roleID, ids), nil
}

func (g grantRepo) RevokePermissions(_ context.Context, roleID uuid.UUID, ids []uuid.UUID) (int, error) {
	return unlink(g.db.rolePerms, roleID, ids), nil
}

func (g grantRepo) RolePermissions(_ context.Context, roleID uuid.UUID) ([]*models.Permission, error) {
	var out []*models.Permission
	for _, id := range g.db.rolePerms[roleID] {
		out = append(out, g.db.permissions[id])
	}
	return out, nil
}

func (g grantRepo) AssignUserRoles(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	return link(g.db.userRoles, userID, ids), nil
}

func (g grantRepo) RevokeUserRoles(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	return unlink(g.db.userRoles, userID, ids), nil
}

func (g grantRepo) UserRoles(_ context.Context, userID uuid.UUID) ([]*models.Role, error) {
	var out []*models.Role
	for _, id := range g.db.userRoles[userID] {
		out = append(out, g.db.roles[id])
	}
	return out, nil
}

type permRepo struct{ db *memDB }

func (p permRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Permission, error) {
	var out []*models.Permission
	for _, id := range ids {
		if perm, ok := p.db.permissions[id]; ok {
			out = append(out, perm)
		}
	}
	return out, nil
}

type userRepo struct{ db *memDB }

func (u userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := u.db.users[id]; ok {
		return user, nil
	}
	return nil, types.ErrNotFound
}

type publisher struct{ db *memDB }

func (p publisher) Publish(_ context.Context, e models.Event) { p.db.events = append(p.db.events, e.Name) }

func newService(db *memDB) *RoleService {
	return NewRoleService(roleRepo{db}, grantRepo{db}, permRepo{db}, userRepo{db}, publisher{db},
		trm.Noop{}, logger.New(io.Discard, "test", logger.LevelError))
}

func superAdmin() context.Context {
	return models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}})
}

func TestCreateAndScope(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	tenant := uuid.New()

	global, err := svc.Create(superAdmin(), CreateRequest{Name: "AUDITOR"})
	require.NoError(t, err)
	assert.Equal(t, types.ScopeGlobal, global.Scope())
	assert.Equal(t, types.TypeCustom, global.Type)
	assert.Equal(t, "AUDITOR", global.DisplayName)

	admin := models.WithPrincipal(context.Background(), &models.Principal{
		UserID:      uuid.New(),
		TenantID:    tenant,
		Permissions: []string{"role:create", "role:read"},
	})
	_, err = svc.Create(admin, CreateRequest{Name: "GLOBAL_ONE"})
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	local, err := svc.Create(admin, CreateRequest{TenantID: &tenant, Name: "EDITOR"})
	require.NoError(t, err)
	assert.Equal(t, types.ScopeTenant, local.Scope())

	_, err = svc.Create(admin, CreateRequest{TenantID: &tenant, Name: "EDITOR"})
	assert.ErrorIs(t, err, types.ErrConflict)

	db.roles[uuid.New()] = models.NewRole(ptr(uuid.New()), nil, "OTHER", "", "", types.TypeCustom, time.Now())

	page, err := svc.List(admin, models.RoleFilter{Filters: models.NewFilters(1, 20, "", models.RoleSortSafelist)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestSystemRolesAreImmutable(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	sys := models.NewRole(nil, nil, types.RoleSuperAdmin, "", "", types.TypeSystem, time.Now())
	db.roles[sys.ID] = sys

	_, err := svc.Update(superAdmin(), sys.ID, "Root", "")
	assert.ErrorIs(t, err, types.ErrSystemDefinition)

	_, err = svc.Delete(superAdmin(), sys.ID)
	assert.ErrorIs(t, err, types.ErrSystemDefinition)
}

func TestGrantAndRevokePermissions(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	role, err := svc.Create(superAdmin(), CreateRequest{Name: "EDITOR"})
	require.NoError(t, err)

	p1, _ := models.NewPermission(nil, "doc:read", "", types.TypeCustom, time.Now())
	p2, _ := models.NewPermission(nil, "doc:update", "", types.TypeCustom, time.Now())
	db.permissions[p1.ID] = p1
	db.permissions[p2.ID] = p2

	n, err := svc.GrantPermissions(superAdmin(), role.ID, []uuid.UUID{p1.ID, p2.ID, p1.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.GrantPermissions(superAdmin(), role.ID, []uuid.UUID{p1.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = svc.GrantPermissions(superAdmin(), role.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownPermissions)

	_, err = svc.GrantPermissions(superAdmin(), role.ID, nil)
	assert.ErrorIs(t, err, ErrEmptyIDs)

	n, err = svc.RevokePermissions(superAdmin(), role.ID, []uuid.UUID{p2.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	perms, err := svc.ListPermissions(superAdmin(), role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "doc:read", perms[0].Key)

	assert.Equal(t, []string{models.EventRolePermissionsChanged, models.EventRolePermissionsChanged}, db.events)
}

func TestAssignRoles(t *testing.T) {
	db := newMemDB()
	svc := newService(db)
	tenant := uuid.New()
	org := uuid.New()
	user := &models.User{ID: uuid.New(), TenantID: tenant, OrganizationID: org, Status: types.StatusActive}
	db.users[user.ID] = user

	own := models.NewRole(&tenant, nil, "EDITOR", "", "", types.TypeCustom, time.Now())
	foreign := models.NewRole(ptr(uuid.New()), nil, "EDITOR", "", "", types.TypeCustom, time.Now())
	root := models.NewRole(nil, nil, types.RoleSuperAdmin, "", "", types.TypeSystem, time.Now())
	for _, r := range []*models.Role{own, foreign, root} {
		db.roles[r.ID] = r
	}

	tenantAdmin := models.WithPrincipal(context.Background(), &models.Principal{
		UserID:      uuid.New(),
		TenantID:    tenant,
		Roles:       []string{types.RoleTenantAdmin},
		Permissions: []string{"user:read", "role:assign"},
	})

	n, err := svc.AssignRoles(tenantAdmin, user.ID, []uuid.UUID{own.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.AssignRoles(tenantAdmin, user.ID, []uuid.UUID{foreign.ID})
	assert.ErrorIs(t, err, ErrForeignRole)

	_, err = svc.AssignRoles(tenantAdmin, user.ID, []uuid.UUID{root.ID})
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	_, err = svc.AssignRoles(superAdmin(), user.ID, []uuid.UUID{root.ID})
	require.NoError(t, err)

	roles, err := svc.ListUserRoles(tenantAdmin, user.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	n, err = svc.RevokeRoles(superAdmin(), user.ID, []uuid.UUID{root.ID, own.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	reader := models.WithPrincipal(context.Background(), &models.Principal{
		UserID:         uuid.New(),
		TenantID:       tenant,
		OrganizationID: org,
		Permissions:    []string{"user:read"},
	})
	_, err = svc.AssignRoles(reader, user.ID, []uuid.UUID{own.ID})
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func ptr[T any](v T) *T { return &v }
