package permission

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type PermissionService struct {
	repo   PermissionRepo
	usages UsageRepo
	log    logger.Logger
}

func NewPermissionService(repo PermissionRepo, usages UsageRepo, log logger.Logger) *PermissionService {
	return &PermissionService{
		repo:   repo,
		usages: usages,
		log:    log,
	}
}

// NormalizeKey lower-cases and trims a permission key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *PermissionService) Create(ctx context.Context, serviceID *uuid.UUID, key, description string) (*models.Permission, error) {
	ctx = wrap.WithAction(ctx, "permission_create")

	if err := access.FromContext(ctx).Permission(access.Create); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	perm, err := models.NewPermission(serviceID, NormalizeKey(key), description, types.TypeCustom, time.Now().UTC())
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Create(ctx, perm); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "permission created", "permission_key", perm.Key)
	return perm, nil
}

func (s *PermissionService) Get(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	if err := access.FromContext(ctx).Permission(access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *PermissionService) List(ctx context.Context, filter models.PermissionFilter) (models.Page[*models.Permission], error) {
	if err := access.FromContext(ctx).Permission(access.Read); err != nil {
		return models.Page[*models.Permission]{}, wrap.Error(ctx, err)
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Permission]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}

func (s *PermissionService) Update(ctx context.Context, id uuid.UUID, description string) (*models.Permission, error) {
	ctx = wrap.WithAction(ctx, "permission_update")
	return s.mutate(ctx, id, access.Update, func(p *models.Permission, now time.Time) error {
		return p.Update(description, now)
	})
}

func (s *PermissionService) Delete(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	ctx = wrap.WithAction(ctx, "permission_delete")
	return s.mutate(ctx, id, access.Delete, (*models.Permission).Delete)
}

func (s *PermissionService) Restore(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	ctx = wrap.WithAction(ctx, "permission_restore")
	return s.mutate(ctx, id, access.Delete, (*models.Permission).Restore)
}

// Validate reports which of keys exist. Keys are normalized and deduplicated;
// the order of the first occurrence is kept.
func (s *PermissionService) Validate(ctx context.Context, serviceName string, keys []string) (*models.PermissionValidation, error) {
	requested := make([]string, 0, len(keys))
	for _, k := range keys {
		k = NormalizeKey(k)
		if k != "" && !slices.Contains(requested, k) {
			requested = append(requested, k)
		}
	}

	existing, err := s.repo.ExistingKeys(ctx, requested)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	res := &models.PermissionValidation{
		Existing: make([]string, 0, len(requested)),
		Missing:  make([]string, 0),
	}
	for _, k := range requested {
		if slices.Contains(existing, k) {
			res.Existing = append(res.Existing, k)
		} else {
			res.Missing = append(res.Missing, k)
		}
	}
	res.Valid = len(res.Missing) == 0

	if !res.Valid {
		s.log.Warn(ctx, "service references unknown permissions", "service_name", serviceName, "missing", res.Missing)
	}
	return res, nil
}

// RecordUsage stores where serviceName references key. The key must exist.
func (s *PermissionService) RecordUsage(ctx context.Context, key, serviceName string, locations []string) (*models.PermissionUsage, error) {
	ctx = wrap.WithAction(ctx, "permission_record_usage")

	key = NormalizeKey(key)
	if _, _, err := models.ParsePermissionKey(key); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if _, err := s.repo.GetByKey(ctx, key); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	usage := &models.PermissionUsage{
		PermissionKey: key,
		ServiceName:   serviceName,
		Locations:     dedupeStrings(locations),
		LastScannedAt: time.Now().UTC(),
	}
	if err := s.usages.UpsertUsage(ctx, usage); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return usage, nil
}

func (s *PermissionService) Usages(ctx context.Context, key string) ([]*models.PermissionUsage, error) {
	if err := access.FromContext(ctx).Permission(access.Read); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.usages.ListUsages(ctx, NormalizeKey(key))
}

func (s *PermissionService) mutate(ctx context.Context, id uuid.UUID, action string, fn func(*models.Permission, time.Time) error) (*models.Permission, error) {
	if err := access.FromContext(ctx).Permission(action); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	perm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := fn(perm, time.Now().UTC()); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.repo.Update(ctx, perm); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return perm, nil
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
