package endpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

// Service scoped roles that receive newly synced permissions.
const (
	roleAdmin  = "ADMIN"
	roleEditor = "EDITOR"
	roleViewer = "VIEWER"
)

// Sync registers the endpoints a service reports. Missing permissions and
// endpoints are created, existing ones are left alone, and new permissions
// are granted to the service's ADMIN/EDITOR/VIEWER roles by action. All of
// it happens in one transaction.
func (s *EndpointService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	ctx = wrap.WithAction(ctx, "endpoint_sync")

	serviceName := strings.TrimSpace(req.ServiceName)
	if serviceName == "" {
		return nil, wrap.Error(ctx, ErrEmptyServiceName)
	}

	res := &models.SyncResult{ServiceName: serviceName, Total: len(req.Endpoints)}
	if len(req.Endpoints) == 0 {
		return res, nil
	}

	items := make([]models.SyncItem, len(req.Endpoints))
	for i, item := range req.Endpoints {
		item.PermissionKey = strings.ToLower(strings.TrimSpace(item.PermissionKey))
		if _, _, err := models.ParsePermissionKey(item.PermissionKey); err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("endpoints[%d]: %w", i, err))
		}
		method, err := models.NormalizeMethod(item.Method)
		if err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("endpoints[%d]: %w", i, err))
		}
		item.Method = method
		items[i] = item
	}

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		serviceID := s.resolveService(ctx, req.ServiceCode)

		keyToID, created, err := s.syncPermissions(ctx, items, serviceID)
		if err != nil {
			return err
		}
		res.PermissionsCreated = len(created)

		res.EndpointsCreated, res.EndpointsSkipped, err = s.syncEndpoints(ctx, serviceName, items, keyToID)
		if err != nil {
			return err
		}

		if serviceID != nil && len(created) > 0 {
			res.MappingsCreated, err = s.mapRoles(ctx, *serviceID, created)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "endpoints synced",
		"service_name", serviceName,
		"total", res.Total,
		"permissions_created", res.PermissionsCreated,
		"endpoints_created", res.EndpointsCreated,
		"endpoints_skipped", res.EndpointsSkipped,
		"mappings_created", res.MappingsCreated,
	)
	return res, nil
}

func (s *EndpointService) resolveService(ctx context.Context, code string) *uuid.UUID {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	svc, err := s.services.GetByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.log.Error(ctx, "failed to resolve service code", err, "service_code", code)
		} else {
			s.log.Warn(ctx, "unknown service code, skipping role mapping", "service_code", code)
		}
		return nil
	}
	return &svc.ID
}

// syncPermissions creates the permissions no item's key exists for. The first
// item of each key supplies the description. It returns the ids of all keys
// and the keys that were created, in item order.
func (s *EndpointService) syncPermissions(ctx context.Context, items []models.SyncItem, serviceID *uuid.UUID) (map[string]uuid.UUID, []*models.Permission, error) {
	var keys []string
	first := make(map[string]models.SyncItem)
	for _, item := range items {
		if _, ok := first[item.PermissionKey]; !ok {
			first[item.PermissionKey] = item
			keys = append(keys, item.PermissionKey)
		}
	}

	existing, err := s.permissions.GetByKeys(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	keyToID := make(map[string]uuid.UUID, len(keys))
	for _, p := range existing {
		keyToID[p.Key] = p.ID
	}

	now := time.Now().UTC()
	var created []*models.Permission
	for _, key := range keys {
		if _, ok := keyToID[key]; ok {
			continue
		}
		perm, err := models.NewPermission(serviceID, key, first[key].Description, types.TypeCustom, now)
		if err != nil {
			return nil, nil, err
		}
		if err := s.permissions.Create(ctx, perm); err != nil {
			return nil, nil, fmt.Errorf("failed to create permission %s: %w", key, err)
		}
		keyToID[key] = perm.ID
		created = append(created, perm)
	}

	return keyToID, created, nil
}

func (s *EndpointService) syncEndpoints(ctx context.Context, serviceName string, items []models.SyncItem, keyToID map[string]uuid.UUID) (created, skipped int, err error) {
	existing, err := s.endpoints.ListActive(ctx, serviceName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load endpoints: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(items))
	for _, ep := range existing {
		seen[ep.Key()] = struct{}{}
	}

	now := time.Now().UTC()
	for _, item := range items {
		key := models.EndpointKey(serviceName, item.Path, item.Method)
		if _, ok := seen[key]; ok {
			skipped++
			continue
		}

		ep, err := models.NewPermissionEndpoint(keyToID[item.PermissionKey], serviceName, item.Path, item.Method, item.Description, item.IsPublic, now)
		if err != nil {
			return 0, 0, fmt.Errorf("endpoint %s: %w", key, err)
		}
		if err := s.endpoints.Create(ctx, ep); err != nil {
			return 0, 0, fmt.Errorf("failed to create endpoint %s: %w", key, err)
		}
		seen[key] = struct{}{}
		created++
	}

	return created, skipped, nil
}

// mapRoles grants created permissions to the service's roles. Nothing is
// mapped when the service has no ADMIN role.
func (s *EndpointService) mapRoles(ctx context.Context, serviceID uuid.UUID, created []*models.Permission) (int, error) {
	roles := make(map[string]*models.Role, 3)
	for _, name := range []string{roleAdmin, roleEditor, roleViewer} {
		r, err := s.roles.FindServiceRole(ctx, serviceID, name)
		if err != nil {
			return 0, fmt.Errorf("failed to load role %s: %w", name, err)
		}
		if r != nil {
			roles[name] = r
		}
	}
	if roles[roleAdmin] == nil {
		s.log.Info(ctx, "service has no ADMIN role, skipping role mapping", "service_id", serviceID.String())
		return 0, nil
	}

	byRole := make(map[uuid.UUID][]uuid.UUID)
	for _, perm := range created {
		for _, name := range TargetRoles(perm.Action) {
			if r := roles[name]; r != nil {
				byRole[r.ID] = append(byRole[r.ID], perm.ID)
			}
		}
	}

	mapped := 0
	for roleID, ids := range byRole {
		n, err := s.grants.GrantPermissions(ctx, roleID, ids)
		if err != nil {
			return 0, fmt.Errorf("failed to grant permissions to role %s: %w", roleID, err)
		}
		mapped += n
	}
	return mapped, nil
}

// TargetRoles lists the service roles that receive a permission with action.
func TargetRoles(action string) []string {
	switch strings.ToLower(action) {
	case "read", "list", "search", "get":
		return []string{roleAdmin, roleEditor, roleViewer}
	case "create", "update", "write", "edit":
		return []string{roleAdmin, roleEditor}
	default:
		return []string{roleAdmin}
	}
}
