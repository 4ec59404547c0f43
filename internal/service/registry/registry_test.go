package registry

import (
	"context"
	"io"
	"testing"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo map[uuid.UUID]*models.Service

func (m memRepo) Create(_ context.Context, s *models.Service) error {
	for _, existing := range m {
		if existing.Code == s.Code {
			return types.ErrConflict
		}
	}
	m[s.ID] = s
	return nil
}

func (m memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memRepo) List(_ context.Context, _ models.ServiceFilter) ([]*models.Service, int, error) {
	out := make([]*models.Service, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m memRepo) Update(_ context.Context, s *models.Service) error {
	m[s.ID] = s
	return nil
}

func TestRegistry(t *testing.T) {
	repo := memRepo{}
	svc := NewRegistryService(repo, logger.New(io.Discard, "test", logger.LevelError))

	admin := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}})
	member := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New()})

	created, err := svc.Create(admin, "svc_billing", "Billing", "")
	require.NoError(t, err)
	assert.Equal(t, "SVC_BILLING", created.Code)
	assert.Equal(t, types.ServiceActive, created.Status)

	_, err = svc.Create(admin, "SVC_BILLING", "Billing again", "")
	assert.ErrorIs(t, err, types.ErrConflict)

	_, err = svc.Create(member, "SVC_OTHER", "Other", "")
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	got, err := svc.Get(member, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing", got.Name)

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	updated, err := svc.ChangeStatus(admin, created.ID, types.ServiceInactive)
	require.NoError(t, err)
	assert.Equal(t, types.ServiceInactive, updated.Status)

	_, err = svc.ChangeStatus(admin, created.ID, types.ServiceInactive)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	updated, err = svc.Update(admin, created.ID, "Billing v2", "payments")
	require.NoError(t, err)
	assert.Equal(t, "Billing v2", updated.Name)

	page, err := svc.List(member, models.ServiceFilter{Filters: models.NewFilters(1, 10, "", models.ServiceSortSafelist)})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Metadata.TotalRecords)
}
