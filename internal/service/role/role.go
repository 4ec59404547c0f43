package role

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/trm"
	"github.com/google/uuid"
)

type RoleService struct {
	roles       RoleRepo
	grants      GrantRepo
	permissions PermissionRepo
	users       UserRepo
	publisher   EventPublisher
	trm         trm.TxManager
	log         logger.Logger
}

func NewRoleService(
	roles RoleRepo,
	grants GrantRepo,
	permissions PermissionRepo,
	users UserRepo,
	publisher EventPublisher,
	trm trm.TxManager,
	log logger.Logger,
) *RoleService {
	return &RoleService{
		roles:       roles,
		grants:      grants,
		permissions: permissions,
		users:       users,
		publisher:   publisher,
		trm:         trm,
		log:         log,
	}
}

// CreateRequest describes a new CUSTOM role. A nil TenantID creates a GLOBAL role.
type CreateRequest struct {
	TenantID    *uuid.UUID
	ServiceID   *uuid.UUID
	Name        string
	DisplayName string
	Description string
}

func (s *RoleService) Create(ctx context.Context, req CreateRequest) (*models.Role, error) {
	ctx = wrap.WithAction(ctx, "role_create")

	if err := access.FromContext(ctx).Role(req.TenantID, access.Create); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	role := models.NewRole(req.TenantID, req.ServiceID, req.Name, req.DisplayName, req.Description, types.TypeCustom, time.Now().UTC())
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "role created", "role_id", role.ID.String(), "name", role.Name, "scope", string(role.Scope()))
	return role, nil
}

func (s *RoleService) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return s.load(ctx, id, access.Read)
}

// List shows global roles and the roles of the caller's tenant.
func (s *RoleService) List(ctx context.Context, filter models.RoleFilter) (models.Page[*models.Role], error) {
	checker := access.FromContext(ctx)
	if !checker.SuperAdmin() {
		p := checker.Principal()
		if err := checker.Role(&p.TenantID, access.Read); err != nil {
			return models.Page[*models.Role]{}, wrap.Error(ctx, err)
		}
		filter.TenantID = &p.TenantID
		filter.WithGlobal = true
	}

	items, total, err := s.roles.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Role]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *RoleService) Update(ctx context.Context, id uuid.UUID, displayName, description string) (*models.Role, error) {
	ctx = wrap.WithAction(ctx, "role_update")

	role, err := s.load(ctx, id, access.Update)
	if err != nil {
		return nil, err
	}
	if err := role.Update(displayName, description, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	ctx = wrap.WithAction(ctx, "role_delete")

	role, err := s.load(ctx, id, access.Delete)
	if err != nil {
		return nil, err
	}
	if err := role.Delete(time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return role, nil
}

// GrantPermissions links permissions to a role. Links that already exist are
// skipped; the returned count is the number of new links.
func (s *RoleService) GrantPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error) {
	ctx = wrap.WithAction(ctx, "role_grant_permissions")
	return s.changePermissions(ctx, roleID, permissionIDs, s.grants.GrantPermissions, "granted")
}

func (s *RoleService) RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error) {
	ctx = wrap.WithAction(ctx, "role_revoke_permissions")
	return s.changePermissions(ctx, roleID, permissionIDs, s.grants.RevokePermissions, "revoked")
}

func (s *RoleService) ListPermissions(ctx context.Context, roleID uuid.UUID) ([]*models.Permission, error) {
	if _, err := s.load(ctx, roleID, access.Read); err != nil {
		return nil, err
	}
	perms, err := s.grants.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return perms, nil
}

// AssignRoles gives a user roles of its own tenant or global roles.
func (s *RoleService) AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error) {
	ctx = wrap.WithAction(ctx, "user_assign_roles")
	return s.changeUserRoles(ctx, userID, roleIDs, s.grants.AssignUserRoles, "assigned")
}

func (s *RoleService) RevokeRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error) {
	ctx = wrap.WithAction(ctx, "user_revoke_roles")
	return s.changeUserRoles(ctx, userID, roleIDs, s.grants.RevokeUserRoles, "revoked")
}

func (s *RoleService) ListUserRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).User(user.ID, user.TenantID, user.OrganizationID, access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	roles, err := s.grants.UserRoles(ctx, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return roles, nil
}

type linkFunc func(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (int, error)

func (s *RoleService) changePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID, link linkFunc, verb string) (int, error) {
	ids := dedupe(permissionIDs)
	if len(ids) == 0 {
		return 0, wrap.Error(ctx, ErrEmptyIDs)
	}

	role, err := s.load(ctx, roleID, access.Update)
	if err != nil {
		return 0, err
	}
	if role.Deleted {
		return 0, wrap.Error(ctx, models.ErrAlreadyDeleted)
	}

	var changed int
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		perms, err := s.permissions.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(perms) != len(ids) {
			return fmt.Errorf("%w: found %d of %d", ErrUnknownPermissions, len(perms), len(ids))
		}

		changed, err = link(ctx, role.ID, ids)
		return err
	})
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	if changed > 0 {
		s.publisher.Publish(ctx, models.NewEvent(models.EventRolePermissionsChanged, map[string]any{
			"role_id":        role.ID.String(),
			"role_name":      role.Name,
			"permission_ids": stringIDs(ids),
			"change":         verb,
		}))
	}
	s.log.Info(ctx, "role permissions changed", "role_id", role.ID.String(), verb, changed)
	return changed, nil
}

func (s *RoleService) changeUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID, link linkFunc, verb string) (int, error) {
	ids := dedupe(roleIDs)
	if len(ids) == 0 {
		return 0, wrap.Error(ctx, ErrEmptyIDs)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	checker := access.FromContext(ctx)
	if err := checker.User(uuid.Nil, user.TenantID, user.OrganizationID, access.Read); err != nil {
		return 0, wrap.Error(ctx, err)
	}
	if !checker.HasPermission("role:" + access.Assign) {
		return 0, wrap.Error(ctx, fmt.Errorf("%w: missing permission role:assign", types.ErrAccessDenied))
	}

	var changed int
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		roles, err := s.roles.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(roles) != len(ids) {
			return fmt.Errorf("%w: found %d of %d", ErrUnknownRoles, len(roles), len(ids))
		}
		for _, r := range roles {
			if r.Deleted {
				return fmt.Errorf("%w: role %s", models.ErrAlreadyDeleted, r.Name)
			}
			if r.TenantID != nil && *r.TenantID != user.TenantID {
				return fmt.Errorf("%w: role %s", ErrForeignRole, r.Name)
			}
			if r.Name == types.RoleSuperAdmin && !checker.SuperAdmin() {
				return fmt.Errorf("%w: only super admins grant %s", types.ErrAccessDenied, types.RoleSuperAdmin)
			}
		}

		changed, err = link(ctx, user.ID, ids)
		return err
	})
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	if changed > 0 {
		s.publisher.Publish(ctx, models.NewEvent(models.EventUserRolesChanged, map[string]any{
			"user_id":  user.ID.String(),
			"role_ids": stringIDs(ids),
			"change":   verb,
		}))
	}
	s.log.Info(ctx, "user roles changed", "target_user_id", user.ID.String(), verb, changed)
	return changed, nil
}

// load fetches a role and checks that the caller may perform action on it.
func (s *RoleService) load(ctx context.Context, id uuid.UUID, action string) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).Role(role.TenantID, action); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return role, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func stringIDs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
