package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked, rejected bool
	nacked, requeue bool
}

func (a *recordingAck) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func (a *recordingAck) Reject(uint64, bool) error { a.rejected = true; return nil }

func delivery(t *testing.T, body any) (amqp.Delivery, *recordingAck) {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	ack := &recordingAck{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: raw}, ack
}

func validEntry() *models.AuditLog {
	return &models.AuditLog{
		ID:           uuid.New(),
		UserID:       "anonymous",
		ActionType:   models.ActionLogin,
		ResourceType: models.ResourceAuth,
		OccurredAt:   time.Now().UTC(),
	}
}

func newConsumer() *AuditConsumer {
	return NewAuditConsumer(nil, "test", 2, logger.New(io.Discard, "test", logger.LevelError))
}

func TestHandleMessage_Ack(t *testing.T) {
	c := newConsumer()
	entry := validEntry()
	msg, ack := delivery(t, entry)

	var got *models.AuditLog
	c.handleMessage(context.Background(), func(_ context.Context, e *models.AuditLog) error {
		got = e
		return nil
	}, msg)

	assert.True(t, ack.acked)
	require.NotNil(t, got)
	assert.Equal(t, entry.ID, got.ID)
}

func TestHandleMessage_SurvivesShutdown(t *testing.T) {
	c := newConsumer()
	msg, ack := delivery(t, validEntry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var handlerErr error
	c.handleMessage(ctx, func(ctx context.Context, _ *models.AuditLog) error {
		handlerErr = ctx.Err()
		return handlerErr
	}, msg)

	assert.NoError(t, handlerErr)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleMessage_DatabaseErrorRequeues(t *testing.T) {
	c := newConsumer()
	msg, ack := delivery(t, validEntry())

	c.handleMessage(context.Background(), func(context.Context, *models.AuditLog) error {
		return fmt.Errorf("insert: %w", types.ErrDatabaseFailed)
	}, msg)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandleMessage_MalformedRejected(t *testing.T) {
	c := newConsumer()
	called := false
	fn := func(context.Context, *models.AuditLog) error { called = true; return nil }

	msg, ack := delivery(t, []byte("{not json"))
	c.handleMessage(context.Background(), fn, msg)
	assert.True(t, ack.rejected)

	msg, ack = delivery(t, &models.AuditLog{UserID: "x"})
	c.handleMessage(context.Background(), fn, msg)
	assert.True(t, ack.rejected)
	assert.False(t, called)
}

func TestHandleMessage_OtherErrorsRejected(t *testing.T) {
	c := newConsumer()
	msg, ack := delivery(t, validEntry())

	c.handleMessage(context.Background(), func(context.Context, *models.AuditLog) error {
		return errors.New("constraint")
	}, msg)
	assert.True(t, ack.rejected)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "event.tenant.created", routingKey(eventKeyPrefix, models.EventTenantCreated))
	assert.Equal(t, "audit.login_failed", routingKey(auditKeyPrefix, string(models.ActionLoginFailed)))
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retry(2, time.Millisecond, func() error { calls++; return errors.New("down") })
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
