package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/hasher"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/trm"
	"github.com/google/uuid"
)

type EndpointService struct {
	endpoints   EndpointRepo
	permissions PermissionRepo
	services    ServiceRepo
	roles       RoleRepo
	grants      GrantRepo
	trm         trm.TxManager
	log         logger.Logger
}

func NewEndpointService(
	endpoints EndpointRepo,
	permissions PermissionRepo,
	services ServiceRepo,
	roles RoleRepo,
	grants GrantRepo,
	trm trm.TxManager,
	log logger.Logger,
) *EndpointService {
	return &EndpointService{
		endpoints:   endpoints,
		permissions: permissions,
		services:    services,
		roles:       roles,
		grants:      grants,
		trm:         trm,
		log:         log,
	}
}

type CreateRequest struct {
	PermissionID uuid.UUID
	ServiceName  string
	URLPattern   string
	HTTPMethod   string
	Description  string
	IsPublic     bool
}

func (s *EndpointService) Create(ctx context.Context, req CreateRequest) (*models.PermissionEndpoint, error) {
	ctx = wrap.WithAction(ctx, "endpoint_create")

	if err := access.FromContext(ctx).Permission(access.Create); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	perm, err := s.permissions.GetByID(ctx, req.PermissionID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("permission %s: %w", req.PermissionID, err))
	}
	if perm.Deleted {
		return nil, wrap.Error(ctx, fmt.Errorf("permission %s: %w", perm.Key, models.ErrAlreadyDeleted))
	}

	ep, err := models.NewPermissionEndpoint(perm.ID, req.ServiceName, req.URLPattern, req.HTTPMethod, req.Description, req.IsPublic, time.Now().UTC())
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ep.PermissionKey = perm.Key

	if err := s.endpoints.Create(ctx, ep); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ep, nil
}

func (s *EndpointService) List(ctx context.Context, filter models.EndpointFilter) (models.Page[*models.PermissionEndpoint], error) {
	if err := access.FromContext(ctx).Permission(access.Read); err != nil {
		return models.Page[*models.PermissionEndpoint]{}, wrap.Error(ctx, err)
	}

	items, total, err := s.endpoints.List(ctx, filter)
	if err != nil {
		return models.Page[*models.PermissionEndpoint]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

type UpdateRequest struct {
	URLPattern  string
	HTTPMethod  string
	Description string
	IsPublic    bool
}

func (s *EndpointService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.PermissionEndpoint, error) {
	ctx = wrap.WithAction(ctx, "endpoint_update")
	return s.mutate(ctx, id, access.Update, func(ep *models.PermissionEndpoint, now time.Time) error {
		return ep.Update(req.URLPattern, req.HTTPMethod, req.Description, req.IsPublic, now)
	})
}

func (s *EndpointService) Delete(ctx context.Context, id uuid.UUID) (*models.PermissionEndpoint, error) {
	ctx = wrap.WithAction(ctx, "endpoint_delete")
	return s.mutate(ctx, id, access.Delete, (*models.PermissionEndpoint).Delete)
}

// Spec returns all active endpoints with a version that changes whenever any
// of them does.
func (s *EndpointService) Spec(ctx context.Context) (*models.EndpointSpec, error) {
	eps, err := s.endpoints.ListActive(ctx, "")
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	entries := make([]string, 0, len(eps))
	var updatedAt time.Time
	for _, ep := range eps {
		entries = append(entries, fmt.Sprintf("%s|%s|%t", ep.Key(), ep.PermissionKey, ep.IsPublic))
		if ep.UpdatedAt.After(updatedAt) {
			updatedAt = ep.UpdatedAt
		}
	}
	if eps == nil {
		eps = []*models.PermissionEndpoint{}
	}

	return &models.EndpointSpec{
		Version:   hasher.HashSet(entries),
		UpdatedAt: updatedAt,
		Endpoints: eps,
	}, nil
}

// Match finds the endpoint of serviceName a request hits. When several
// patterns match, the longest pattern wins.
func (s *EndpointService) Match(ctx context.Context, serviceName, method, path string) (*models.PermissionEndpoint, error) {
	eps, err := s.endpoints.ListActive(ctx, serviceName)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var best *models.PermissionEndpoint
	for _, ep := range eps {
		if !ep.Matches(method, path) {
			continue
		}
		if best == nil || len(ep.URLPattern) > len(best.URLPattern) {
			best = ep
		}
	}
	if best == nil {
		return nil, ErrNoMatch
	}
	return best, nil
}

func (s *EndpointService) mutate(ctx context.Context, id uuid.UUID, action string, fn func(*models.PermissionEndpoint, time.Time) error) (*models.PermissionEndpoint, error) {
	if err := access.FromContext(ctx).Permission(action); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ep, err := s.endpoints.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := fn(ep, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.endpoints.Update(ctx, ep); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ep, nil
}
