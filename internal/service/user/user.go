package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/trm"
	"github.com/google/uuid"
)

type UserService struct {
	users     UserRepo
	tenants   TenantRepo
	orgs      OrganizationRepo
	access    AccessRepo
	hasher    PasswordHasher
	tokens    TokenRevoker
	publisher EventPublisher
	trm       trm.TxManager
	log       logger.Logger
}

func NewUserService(
	users UserRepo,
	tenants TenantRepo,
	orgs OrganizationRepo,
	accessRepo AccessRepo,
	hasher PasswordHasher,
	tokens TokenRevoker,
	publisher EventPublisher,
	trm trm.TxManager,
	log logger.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tenants:   tenants,
		orgs:      orgs,
		access:    accessRepo,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		trm:       trm,
		log:       log,
	}
}

// Create registers a user in an active tenant and organization and assigns
// the requested roles in the same transaction.
func (s *UserService) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "user_create")

	if err := access.FromContext(ctx).User(uuid.Nil, req.TenantID, req.OrganizationID, access.Create); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if err := s.checkParents(ctx, req.TenantID, req.OrganizationID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to hash password: %w", err))
	}

	userType := req.Type
	if userType == "" {
		userType = types.UserTypePublic
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:             uuid.New(),
		TenantID:       req.TenantID,
		OrganizationID: req.OrganizationID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   hash,
		Type:           userType,
		Status:         types.StatusActive,
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if len(req.RoleIDs) > 0 {
			if _, err := s.access.AssignUserRoles(ctx, user.ID, req.RoleIDs); err != nil {
				return fmt.Errorf("failed to assign roles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventUserCreated, map[string]any{
		"user_id":         user.ID.String(),
		"tenant_id":       user.TenantID.String(),
		"organization_id": user.OrganizationID.String(),
		"email":           user.Email,
	}))
	s.log.Info(ctx, "user created", "created_user_id", user.ID.String())
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).User(user.ID, user.TenantID, user.OrganizationID, access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return user, nil
}

// List keeps non super admins inside their tenant and, unless they are
// tenant admins, inside their organization.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (models.Page[*models.User], error) {
	checker := access.FromContext(ctx)
	if !checker.SuperAdmin() {
		p := checker.Principal()
		if err := checker.User(uuid.Nil, p.TenantID, p.OrganizationID, access.Read); err != nil {
			return models.Page[*models.User]{}, wrap.Error(ctx, err)
		}
		filter.TenantID = &p.TenantID
		if !checker.TenantAdmin() {
			filter.OrganizationID = &p.OrganizationID
		}
	}

	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return models.Page[*models.User]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "user_update")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).User(user.ID, user.TenantID, user.OrganizationID, access.Update); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if err := user.UpdateProfile(strings.TrimSpace(name), phone, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return user, nil
}

// ChangeStatus moves a user through its lifecycle. Leaving ACTIVE revokes
// the user's refresh tokens.
func (s *UserService) ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "user_change_status")

	action := access.Update
	if status == types.StatusDeleted {
		action = access.Delete
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	checker := access.FromContext(ctx)
	if checker.Myself(user.ID) && !checker.SuperAdmin() {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: users cannot change their own status", types.ErrAccessDenied))
	}
	if err := checker.User(user.ID, user.TenantID, user.OrganizationID, action); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	prev := user.Status
	if err := user.ChangeStatus(status, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		if status != types.StatusActive {
			if _, err := s.tokens.RevokeUser(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to revoke tokens: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventUserStatusChanged, map[string]any{
		"user_id": user.ID.String(),
		"from":    prev.String(),
		"to":      status.String(),
	}))
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.ChangeStatus(ctx, id, types.StatusDeleted)
}

// ChangePassword requires the current password when users change their own
// password. Admins with user:update may reset it without. All refresh tokens
// of the user are revoked afterwards.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	ctx = wrap.WithAction(ctx, "user_change_password")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	checker := access.FromContext(ctx)
	if err := checker.User(user.ID, user.TenantID, user.OrganizationID, access.Update); err != nil {
		return wrap.Error(ctx, err)
	}

	if checker.Myself(user.ID) {
		if current == "" {
			return wrap.Error(ctx, ErrCurrentPasswordEmpty)
		}
		ok, err := s.hasher.Verify(current, user.PasswordHash)
		if err != nil || !ok {
			return wrap.Error(ctx, ErrWrongPassword)
		}
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to hash password: %w", err))
	}
	if err := user.ChangePassword(hash, time.Now().UTC()); err != nil {
		return wrap.Error(ctx, err)
	}

	var revoked int64
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		revoked, err = s.tokens.RevokeUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return wrap.Error(ctx, err)
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventTokenRevoked, map[string]any{
		"user_id": user.ID.String(),
		"reason":  string(types.RevokePasswordChange),
		"revoked": revoked,
	}))
	s.log.Info(ctx, "password changed", "target_user_id", user.ID.String(), "refresh_tokens_revoked", revoked)
	return nil
}

// Access returns a user with its effective roles and permissions. It backs
// the internal API and performs no caller checks.
func (s *UserService) Access(ctx context.Context, id uuid.UUID) (*models.UserAccess, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	roles, err := s.access.UserRoleNames(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	permissions, err := s.access.UserPermissionKeys(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return &models.UserAccess{User: user, Roles: roles, Permissions: permissions}, nil
}

func (s *UserService) checkParents(ctx context.Context, tenantID, orgID uuid.UUID) error {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return fmt.Errorf("organization %s: %w", orgID, err)
	}
	if org.TenantID != tenant.ID {
		return ErrOrganizationMismatch
	}
	if !tenant.IsActive() || !org.IsActive() {
		return ErrParentNotActive
	}
	return nil
}
