package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	block   chan struct{}
	fail    bool
}

func (s *memSink) Write(_ context.Context, e *models.AuditLog) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memSink) Insert(ctx context.Context, e *models.AuditLog) error { return s.Write(ctx, e) }

func (s *memSink) Search(_ context.Context, _ models.AuditFilter) ([]*models.AuditLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries, len(s.entries), nil
}

func (s *memSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type countingBroadcaster struct {
	mu sync.Mutex
	n  int
}

func (b *countingBroadcaster) Broadcast(any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	return 1
}

func testLogger() logger.Logger { return logger.New(io.Discard, "test", logger.LevelError) }

func TestRecorder_DrainsOnClose(t *testing.T) {
	sink := &memSink{}
	bc := &countingBroadcaster{}
	rec := NewRecorder(sink, bc, 16, testLogger())
	rec.Start(context.Background())

	for range 10 {
		assert.True(t, rec.Record(&models.AuditLog{ActionType: models.ActionRead, ResourceType: models.ResourceUser}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))

	assert.Equal(t, 10, sink.len())
	assert.Equal(t, 10, bc.n)
	for _, e := range sink.entries {
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.False(t, e.OccurredAt.IsZero())
	}

	assert.False(t, rec.Record(&models.AuditLog{}), "closed recorder rejects entries")
	require.NoError(t, rec.Close(ctx), "close is idempotent")
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sink := &memSink{block: make(chan struct{})}
	rec := NewRecorder(sink, nil, 2, testLogger())
	rec.Start(context.Background())

	accepted := 0
	for range 10 {
		if rec.Record(&models.AuditLog{}) {
			accepted++
		}
	}
	// The worker may hold one entry while blocked in the sink.
	assert.LessOrEqual(t, accepted, 3)
	assert.GreaterOrEqual(t, accepted, 2)

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
	assert.Equal(t, accepted, sink.len())
}

func TestRecorder_SinkErrorsDoNotStopWorker(t *testing.T) {
	sink := &memSink{fail: true}
	rec := NewRecorder(sink, nil, 4, testLogger())
	rec.Start(context.Background())

	rec.Record(&models.AuditLog{})
	rec.Record(&models.AuditLog{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
	assert.Zero(t, sink.len())
}

func TestSearch(t *testing.T) {
	sink := &memSink{}
	svc := NewAuditService(sink, testLogger())
	require.NoError(t, svc.Write(context.Background(), &models.AuditLog{ID: uuid.New()}))

	admin := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}})
	filter := models.AuditFilter{Filters: models.NewFilters(1, 20, "", models.AuditSortSafelist)}

	page, err := svc.Search(admin, filter)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	from := time.Now()
	to := from.Add(-time.Hour)
	filter.From, filter.To = &from, &to
	_, err = svc.Search(admin, filter)
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	member := models.WithPrincipal(context.Background(), &models.Principal{UserID: uuid.New()})
	_, err = svc.Search(member, models.AuditFilter{})
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}
