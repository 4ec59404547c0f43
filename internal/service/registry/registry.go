// Package registry manages the client services registered with AuthHub.
package registry

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

type RegistryService struct {
	repo ServiceRepo
	log  logger.Logger
}

func NewRegistryService(repo ServiceRepo, log logger.Logger) *RegistryService {
	return &RegistryService{repo: repo, log: log}
}

func (s *RegistryService) Create(ctx context.Context, code, name, description string) (*models.Service, error) {
	ctx = wrap.WithAction(ctx, "service_create")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	svc := models.NewService(strings.ToUpper(strings.TrimSpace(code)), strings.TrimSpace(name), description, time.Now().UTC())
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "service registered", "service_code", svc.Code)
	return svc, nil
}

func (s *RegistryService) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if err := access.FromContext(ctx).RequireAuthenticated(); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *RegistryService) List(ctx context.Context, filter models.ServiceFilter) (models.Page[*models.Service], error) {
	if err := access.FromContext(ctx).RequireAuthenticated(); err != nil {
		return models.Page[*models.Service]{}, wrap.Error(ctx, err)
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Service]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *RegistryService) Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Service, error) {
	ctx = wrap.WithAction(ctx, "service_update")

	svc, err := s.loadForAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Update(strings.TrimSpace(name), description, time.Now().UTC())
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return svc, nil
}

func (s *RegistryService) ChangeStatus(ctx context.Context, id uuid.UUID, status types.ServiceStatus) (*models.Service, error) {
	ctx = wrap.WithAction(ctx, "service_change_status")

	svc, err := s.loadForAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := svc.ChangeStatus(status, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "service status changed", "service_code", svc.Code, "status", string(status))
	return svc, nil
}

func (s *RegistryService) loadForAdmin(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return svc, nil
}
