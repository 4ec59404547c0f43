package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
	"github.com/Temutjin2k/authhub/pkg/rabbit"
)

// EventPublisher publishes domain events as event.<name>. Failures are
// logged and never reach the caller.
type EventPublisher struct {
	client  *rabbit.RabbitMQ
	service string
	log     logger.Logger
}

func NewEventPublisher(client *rabbit.RabbitMQ, service string, log logger.Logger) *EventPublisher {
	return &EventPublisher{client: client, service: service, log: log}
}

func (p *EventPublisher) Publish(ctx context.Context, event models.Event) {
	const op = "EventPublisher.Publish"
	ctx = wrap.WithAction(context.WithoutCancel(ctx), types.ActionEventPublish)

	key := routingKey(eventKeyPrefix, event.Name)
	body, err := json.Marshal(event)
	if err == nil {
		err = publish(ctx, p.client, key, body)
	}
	metrics.RecordRabbitMQPublish(p.service, key, err)
	if err != nil {
		p.log.Error(ctx, "failed to publish event", fmt.Errorf("%s: %w", op, err), "routing_key", key)
		return
	}
	p.log.Debug(ctx, "event published", "routing_key", key, "event_id", event.ID.String())
}

// AuditSink publishes audit entries as audit.<action_type>.
type AuditSink struct {
	client  *rabbit.RabbitMQ
	service string
}

func NewAuditSink(client *rabbit.RabbitMQ, service string) *AuditSink {
	return &AuditSink{client: client, service: service}
}

func (s *AuditSink) Write(ctx context.Context, entry *models.AuditLog) error {
	const op = "AuditSink.Write"

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	key := routingKey(auditKeyPrefix, string(entry.ActionType))
	err = publish(ctx, s.client, key, body)
	metrics.RecordRabbitMQPublish(s.service, key, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NoopPublisher drops events. It is used when RabbitMQ is disabled.
type NoopPublisher struct {
	log logger.Logger
}

func NewNoopPublisher(log logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(ctx context.Context, event models.Event) {
	p.log.Debug(ctx, "event dropped, broker disabled", "event", event.Name)
}
