package rabbit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/rabbit"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange all AuthHub messages go through.
const Exchange = "authhub_topic"

const (
	eventKeyPrefix = "event."
	auditKeyPrefix = "audit."
)

// isRecoverableError returns true if the message must be requeued.
func isRecoverableError(err error) bool {
	return oneOf(err, types.ErrDatabaseFailed, context.DeadlineExceeded)
}

func oneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for i := range n {
		if err = fn(); err == nil {
			return nil
		}
		if i < n-1 {
			time.Sleep(sleep)
		}
	}
	return err
}

// routingKey builds "<prefix><name>" with name lower-cased.
func routingKey(prefix, name string) string {
	return prefix + strings.ToLower(name)
}

// publish sends a persistent JSON message, reconnecting when the broker dropped us.
func publish(ctx context.Context, client *rabbit.RabbitMQ, key string, body []byte) error {
	return retry(3, 200*time.Millisecond, func() error {
		if err := client.EnsureConnection(ctx); err != nil {
			return err
		}
		ch, err := client.Chan()
		if err != nil {
			return err
		}
		if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange: %w", err)
		}
		return ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
	})
}
