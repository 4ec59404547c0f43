package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type TenantService struct {
	repo          TenantRepo
	subscriptions SubscriptionReader
	publisher     EventPublisher
	log           logger.Logger
}

func NewTenantService(repo TenantRepo, subscriptions SubscriptionReader, publisher EventPublisher, log logger.Logger) *TenantService {
	return &TenantService{
		repo:          repo,
		subscriptions: subscriptions,
		publisher:     publisher,
		log:           log,
	}
}

// Create registers a new tenant. Only super admins create tenants directly;
// everyone else goes through onboarding.
func (s *TenantService) Create(ctx context.Context, name string) (*models.Tenant, error) {
	ctx = wrap.WithAction(ctx, "tenant_create")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	tenant := models.NewTenant(strings.TrimSpace(name), time.Now().UTC())
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventTenantCreated, map[string]any{
		"tenant_id": tenant.ID.String(),
		"name":      tenant.Name,
	}))
	s.log.Info(ctx, "tenant created", "tenant_id", tenant.ID.String())
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if err := access.FromContext(ctx).Tenant(id, access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every tenant to super admins and only the caller's own tenant
// to everyone else.
func (s *TenantService) List(ctx context.Context, filter models.TenantFilter) (models.Page[*models.Tenant], error) {
	checker := access.FromContext(ctx)
	if !checker.SuperAdmin() {
		p := checker.Principal()
		if err := checker.Tenant(p.TenantID, access.Read); err != nil {
			return models.Page[*models.Tenant]{}, wrap.Error(ctx, err)
		}
		filter.ID = &p.TenantID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Tenant]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *TenantService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error) {
	ctx = wrap.WithAction(ctx, "tenant_update")

	if err := access.FromContext(ctx).Tenant(id, access.Update); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := tenant.Rename(strings.TrimSpace(name), time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return tenant, nil
}

// ChangeStatus activates or deactivates a tenant. Deleting goes through Delete.
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Tenant, error) {
	ctx = wrap.WithAction(ctx, "tenant_change_status")

	if status == types.StatusDeleted {
		return s.Delete(ctx, id)
	}
	if err := access.FromContext(ctx).Tenant(id, access.Update); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.transition(ctx, id, status)
}

// Delete soft deletes a tenant.
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	ctx = wrap.WithAction(ctx, "tenant_delete")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.transition(ctx, id, types.StatusDeleted)
}

// Config is the tenant view served to internal services.
func (s *TenantService) Config(ctx context.Context, id uuid.UUID) (*models.TenantConfig, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	services, err := s.subscriptions.ActiveServiceCodes(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if services == nil {
		services = []string{}
	}
	return &models.TenantConfig{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Status:   tenant.Status.String(),
		Active:   tenant.IsActive(),
		Services: services,
	}, nil
}

func (s *TenantService) transition(ctx context.Context, id uuid.UUID, status types.Status) (*models.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	prev := tenant.Status
	if err := tenant.ChangeStatus(status, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "tenant status changed", "tenant_id", id.String(), "from", prev.String(), "to", status.String())
	return tenant, nil
}
