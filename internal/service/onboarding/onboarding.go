package onboarding

import (
	"context"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/trm"
)

// ReplayWindow is how long a finished onboarding can be replayed by key.
const ReplayWindow = 24 * time.Hour

type OnboardingService struct {
	tenants   TenantRepo
	orgs      OrganizationRepo
	store     IdempotencyStore
	publisher EventPublisher
	trm       trm.TxManager
	log       logger.Logger
}

func NewOnboardingService(tenants TenantRepo, orgs OrganizationRepo, store IdempotencyStore, publisher EventPublisher, trm trm.TxManager, log logger.Logger) *OnboardingService {
	return &OnboardingService{
		tenants:   tenants,
		orgs:      orgs,
		store:     store,
		publisher: publisher,
		trm:       trm,
		log:       log,
	}
}

// Onboard creates a tenant together with its first organization. Repeating a
// call with the same key returns the first result without creating anything.
func (s *OnboardingService) Onboard(ctx context.Context, key, tenantName, orgName string) (*models.OnboardingResult, bool, error) {
	ctx = wrap.WithAction(ctx, "onboarding")

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, wrap.Error(ctx, ErrIdempotencyKeyRequired)
	}
	tenantName, orgName = strings.TrimSpace(tenantName), strings.TrimSpace(orgName)
	if tenantName == "" || orgName == "" {
		return nil, false, wrap.Error(ctx, ErrNameRequired)
	}

	prev, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, wrap.Error(ctx, err)
	}
	if prev != nil {
		s.log.Info(ctx, "onboarding replayed", "tenant_id", prev.TenantID.String())
		return prev, true, nil
	}

	now := time.Now().UTC()
	tenant := models.NewTenant(tenantName, now)
	org := models.NewOrganization(tenant.ID, orgName, now)

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.tenants.Create(ctx, tenant); err != nil {
			return err
		}
		return s.orgs.Create(ctx, org)
	})
	if err != nil {
		return nil, false, wrap.Error(ctx, err)
	}

	result := &models.OnboardingResult{TenantID: tenant.ID, OrganizationID: org.ID}
	if err := s.store.Save(ctx, key, result, ReplayWindow); err != nil {
		// The tenant exists; a retry with this key will hit the name conflict.
		s.log.Warn(ctx, "failed to store onboarding result", "error", err.Error())
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventTenantCreated, map[string]any{
		"tenant_id":       tenant.ID.String(),
		"organization_id": org.ID.String(),
		"name":            tenant.Name,
	}))
	s.log.Info(ctx, "tenant onboarded", "tenant_id", tenant.ID.String(), "organization_id", org.ID.String())
	return result, false, nil
}
