// Package subscription manages which registered services each tenant uses.
package subscription

import (
	"context"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type SubscriptionService struct {
	repo      SubscriptionRepo
	tenants   TenantRepo
	services  ServiceRepo
	publisher EventPublisher
	log       logger.Logger
}

func NewSubscriptionService(
	repo SubscriptionRepo,
	tenants TenantRepo,
	services ServiceRepo,
	publisher EventPublisher,
	log logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		tenants:   tenants,
		services:  services,
		publisher: publisher,
		log:       log,
	}
}

// Subscribe gives tenantID access to serviceID. A pair can only be subscribed
// once; later changes go through ChangeStatus.
func (s *SubscriptionService) Subscribe(ctx context.Context, tenantID, serviceID uuid.UUID) (*models.Subscription, error) {
	ctx = wrap.WithAction(ctx, "subscription_create")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !tenant.IsActive() {
		return nil, wrap.Error(ctx, ErrTenantNotActive)
	}
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if svc.Status != types.ServiceActive {
		return nil, wrap.Error(ctx, ErrServiceNotActive)
	}

	sub := models.NewSubscription(tenantID, serviceID, time.Now().UTC())
	sub.ServiceCode = svc.Code
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publish(ctx, sub)
	s.log.Info(ctx, "tenant subscribed to service", "tenant_id", tenantID.String(), "service_code", svc.Code)
	return sub, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := access.FromContext(ctx).Tenant(sub.TenantID, access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return sub, nil
}

// List returns every subscription to super admins and only those of the
// caller's tenant to everyone else.
func (s *SubscriptionService) List(ctx context.Context, filter models.SubscriptionFilter) (models.Page[*models.Subscription], error) {
	if err := filter.ValidateRange(); err != nil {
		return models.Page[*models.Subscription]{}, wrap.Error(ctx, err)
	}

	checker := access.FromContext(ctx)
	if !checker.SuperAdmin() {
		p := checker.Principal()
		if err := checker.Tenant(p.TenantID, access.Read); err != nil {
			return models.Page[*models.Subscription]{}, wrap.Error(ctx, err)
		}
		filter.TenantID = &p.TenantID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Subscription]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *SubscriptionService) ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Subscription, error) {
	ctx = wrap.WithAction(ctx, "subscription_change_status")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	prev := sub.Status
	if err := sub.ChangeStatus(status, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publish(ctx, sub)
	s.log.Info(ctx, "subscription status changed", "subscription_id", id.String(), "from", prev.String(), "to", status.String())
	return sub, nil
}

// ForTenant lists the active subscriptions of tenantID for internal callers.
func (s *SubscriptionService) ForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Subscription, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	filter := models.SubscriptionFilter{
		TenantID: &tenantID,
		Statuses: []types.Status{types.StatusActive},
		Filters:  models.NewFilters(1, models.MaxPageSize, "", models.SubscriptionSortSafelist),
	}
	items, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if items == nil {
		items = []*models.Subscription{}
	}
	return items, nil
}

func (s *SubscriptionService) publish(ctx context.Context, sub *models.Subscription) {
	s.publisher.Publish(ctx, models.NewEvent(models.EventSubscriptionChanged, map[string]any{
		"subscription_id": sub.ID.String(),
		"tenant_id":       sub.TenantID.String(),
		"service_id":      sub.ServiceID.String(),
		"status":          sub.Status.String(),
	}))
}
