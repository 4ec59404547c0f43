package models

import (
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscription(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	tenantID, serviceID := uuid.New(), uuid.New()

	s := NewSubscription(tenantID, serviceID, now)

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, tenantID, s.TenantID)
	assert.Equal(t, serviceID, s.ServiceID)
	assert.True(t, s.IsActive())
	assert.Equal(t, now, s.SubscribedAt)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestSubscription_Lifecycle(t *testing.T) {
	created := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	t.Run("deactivate and reactivate", func(t *testing.T) {
		s := NewSubscription(uuid.New(), uuid.New(), created)

		require.NoError(t, s.Deactivate(later))
		assert.False(t, s.IsActive())
		assert.Equal(t, types.StatusInactive, s.Status)
		assert.Equal(t, later, s.UpdatedAt)

		require.NoError(t, s.Activate(later))
		assert.True(t, s.IsActive())
	})

	t.Run("suspend", func(t *testing.T) {
		s := NewSubscription(uuid.New(), uuid.New(), created)

		require.NoError(t, s.Suspend(later))
		assert.False(t, s.IsActive())
		assert.Equal(t, types.StatusSuspended, s.Status)

		require.NoError(t, s.ChangeStatus(types.StatusInactive, later))
		assert.Equal(t, types.StatusInactive, s.Status)
	})

	t.Run("rejected transitions", func(t *testing.T) {
		s := NewSubscription(uuid.New(), uuid.New(), created)

		assert.ErrorIs(t, s.Activate(later), types.ErrInvalidTransition)
		assert.ErrorIs(t, s.ChangeStatus(types.StatusDeleted, later), types.ErrInvalidTransition)
		assert.Equal(t, created, s.UpdatedAt)

		require.NoError(t, s.Deactivate(later))
		assert.ErrorIs(t, s.Suspend(later), types.ErrInvalidTransition)
	})
}
