package organization

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
	"github.com/google/uuid"
)

type OrganizationService struct {
	repo    OrganizationRepo
	tenants TenantRepo
	log     logger.Logger
}

func NewOrganizationService(repo OrganizationRepo, tenants TenantRepo, log logger.Logger) *OrganizationService {
	return &OrganizationService{
		repo:    repo,
		tenants: tenants,
		log:     log,
	}
}

func (s *OrganizationService) Create(ctx context.Context, tenantID uuid.UUID, name string) (*models.Organization, error) {
	ctx = wrap.WithAction(ctx, "organization_create")

	if err := access.FromContext(ctx).Organization(tenantID, uuid.Nil, access.Create); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("tenant %s: %w", tenantID, err))
	}
	if !tenant.IsActive() {
		return nil, wrap.Error(ctx, ErrTenantNotActive)
	}

	org := models.NewOrganization(tenantID, strings.TrimSpace(name), time.Now().UTC())
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "organization created", "organization_id", org.ID.String(), "tenant_id", tenantID.String())
	return org, nil
}

func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).Organization(org.TenantID, org.ID, access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return org, nil
}

// List is limited to the caller's tenant unless the caller is a super admin.
func (s *OrganizationService) List(ctx context.Context, filter models.OrganizationFilter) (models.Page[*models.Organization], error) {
	checker := access.FromContext(ctx)
	if !checker.SuperAdmin() {
		p := checker.Principal()
		if err := checker.Organization(p.TenantID, uuid.Nil, access.Read); err != nil {
			return models.Page[*models.Organization]{}, wrap.Error(ctx, err)
		}
		filter.TenantID = &p.TenantID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Organization]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *OrganizationService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Organization, error) {
	ctx = wrap.WithAction(ctx, "organization_update")

	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).Organization(org.TenantID, org.ID, access.Update); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if err := org.Rename(strings.TrimSpace(name), time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return org, nil
}

func (s *OrganizationService) ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Organization, error) {
	ctx = wrap.WithAction(ctx, "organization_change_status")

	action := access.Update
	if status == types.StatusDeleted {
		action = access.Delete
	}
	return s.transition(ctx, id, status, action)
}

func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	ctx = wrap.WithAction(ctx, "organization_delete")
	return s.transition(ctx, id, types.StatusDeleted, access.Delete)
}

func (s *OrganizationService) transition(ctx context.Context, id uuid.UUID, status types.Status, action string) (*models.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).Organization(org.TenantID, org.ID, action); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	prev := org.Status
	if err := org.ChangeStatus(status, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "organization status changed", "organization_id", id.String(), "from", prev.String(), "to", status.String())
	return org, nil
}
