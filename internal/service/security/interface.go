package security

import (
	"context"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
)

type BlacklistStore interface {
	Add(ctx context.Context, entry models.BlacklistEntry) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	// FindExpired returns up to limit token ids whose expiry is at or before maxEpoch.
	FindExpired(ctx context.Context, maxEpoch int64, limit int64) ([]string, error)
	RemoveAll(ctx context.Context, tokenIDs []string) (int64, error)
}

// CounterStore keeps fixed window counters.
type CounterStore interface {
	// Get returns the current count and the time left in its window.
	Get(ctx context.Context, key string) (int64, time.Duration, error)
	// Incr increments key and starts the window when the counter is new.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}
