package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
	"github.com/Temutjin2k/authhub/pkg/rabbit"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	AuditQueue      = "authhub_audit"
	auditBindingKey = "audit.#"
)

var errMalformed = errors.New("malformed audit message")

type AuditHandler func(ctx context.Context, entry *models.AuditLog) error

// AuditConsumer reads audit entries from the broker and hands them to a
// handler with bounded concurrency.
type AuditConsumer struct {
	client      *rabbit.RabbitMQ
	service     string
	concurrency int
	l           logger.Logger
}

func NewAuditConsumer(client *rabbit.RabbitMQ, service string, concurrency int, l logger.Logger) *AuditConsumer {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &AuditConsumer{client: client, service: service, concurrency: concurrency, l: l}
}

// Consume blocks until ctx is done, reconnecting whenever the broker goes away.
// In-flight messages are finished before it returns.
func (c *AuditConsumer) Consume(ctx context.Context, fn AuditHandler) error {
	const op = "AuditConsumer.Consume"
	ctx = wrap.WithAction(ctx, types.ActionAuditConsume)

	sem := make(chan struct{}, c.concurrency)
	defer func() {
		// wait for in-flight handlers
		for range c.concurrency {
			sem <- struct{}{}
		}
	}()

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "audit consumer stopped by context")
			return nil
		}

		msgs, err := c.subscribe(ctx)
		if err != nil {
			c.l.Error(ctx, "subscribe failed", err, "op", op)
			if !sleep(ctx, 2*time.Second) {
				return nil
			}
			continue
		}

		c.l.Info(ctx, "start consuming audit entries", "queue", AuditQueue)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				c.l.Info(ctx, "audit consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					c.l.Warn(ctx, "message channel closed, reconnecting", "op", op)
					break consumeLoop
				}

				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return nil
				}
				go func() {
					defer func() { <-sem }()
					c.handleMessage(ctx, fn, msg)
				}()
			}
		}
	}
}

func (c *AuditConsumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	if err := c.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	ch, err := c.client.Chan()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, auditBindingKey, Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(c.concurrency*2, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	return ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
}

// handleMessage runs detached from ctx cancellation so a delivery already
// taken off the queue is stored and acked even while Consume shuts down.
func (c *AuditConsumer) handleMessage(ctx context.Context, fn AuditHandler, msg amqp.Delivery) {
	ctx = context.WithoutCancel(ctx)

	err := c.process(ctx, fn, msg.Body)
	metrics.RecordRabbitMQConsume(c.service, AuditQueue, err)

	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			c.l.Warn(ctx, "ack failed", "error", ackErr.Error())
		}
	case isRecoverableError(err):
		c.l.Error(ctx, "audit entry not stored, requeueing", err)
		_ = msg.Nack(false, true)
	default:
		c.l.Error(ctx, "dropping audit message", err)
		_ = msg.Reject(false)
	}
}

func (c *AuditConsumer) process(ctx context.Context, fn AuditHandler, body []byte) error {
	var entry models.AuditLog
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if entry.ID == uuid.Nil || entry.ActionType == "" || entry.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing id, action type or time", errMalformed)
	}
	return fn(ctx, &entry)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
