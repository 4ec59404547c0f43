package audit

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
)

type AuditRepo interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	Search(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, int, error)
}

// Sink is where recorded entries end up: the message broker in api mode or
// the database directly.
type Sink interface {
	Write(ctx context.Context, entry *models.AuditLog) error
}

// Broadcaster pushes entries to live subscribers.
type Broadcaster interface {
	Broadcast(msg any) int
}
