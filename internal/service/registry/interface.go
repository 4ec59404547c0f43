package registry

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
)

type ServiceRepo interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, int, error)
	Update(ctx context.Context, service *models.Service) error
}
