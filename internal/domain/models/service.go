package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
)

var ServiceCodeRX = regexp.MustCompile(`^SVC_[A-Z0-9_]{1,60}$`)

// Service is a client application registered with AuthHub.
type Service struct {
	ID          uuid.UUID           `json:"id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      types.ServiceStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func NewService(code, name, description string, now time.Time) *Service {
	return &Service{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: description,
		Status:      types.ServiceActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type ServiceFilter struct {
	Name   string
	Status types.ServiceStatus
	Filters
}

var ServiceSortSafelist = []string{"code", "name", "created_at", "-code", "-name", "-created_at"}

func (s *Service) Update(name, description string, now time.Time) {
	if name != "" {
		s.Name = name
	}
	s.Description = description
	s.UpdatedAt = now
}

func (s *Service) ChangeStatus(status types.ServiceStatus, now time.Time) error {
	if status != types.ServiceActive && status != types.ServiceInactive {
		return fmt.Errorf("%w: %s", types.ErrInvalidTransition, status)
	}
	if s.Status == status {
		return fmt.Errorf("%w: already %s", types.ErrInvalidTransition, status)
	}
	s.Status = status
	s.UpdatedAt = now
	return nil
}
