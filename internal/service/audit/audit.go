package audit

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/service/access"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
)

type AuditService struct {
	repo AuditRepo
	log  logger.Logger
}

func NewAuditService(repo AuditRepo, log logger.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Write stores an entry. It makes the service usable as a Sink.
func (s *AuditService) Write(ctx context.Context, entry *models.AuditLog) error {
	return s.repo.Insert(ctx, entry)
}

func (s *AuditService) Search(ctx context.Context, filter models.AuditFilter) (models.Page[*models.AuditLog], error) {
	ctx = wrap.WithAction(ctx, "audit_search")

	if err := access.FromContext(ctx).RequireSuperAdmin(); err != nil {
		return models.Page[*models.AuditLog]{}, wrap.Error(ctx, err)
	}
	if err := filter.ValidateRange(); err != nil {
		return models.Page[*models.AuditLog]{}, wrap.Error(ctx, err)
	}

	items, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return models.Page[*models.AuditLog]{}, wrap.Error(ctx, err)
	}
	return models.NewPage(items, total, filter.Filters), nil
}
