package security

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
)

type Rule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRules are applied per 60 second window.
func DefaultRules() map[types.RateLimitType]Rule {
	return map[types.RateLimitType]Rule{
		types.RateLimitIP:       {Limit: 100, Window: time.Minute},
		types.RateLimitUser:     {Limit: 1000, Window: time.Minute},
		types.RateLimitEndpoint: {Limit: 5000, Window: time.Minute},
	}
}

// RateLimiter is a fixed window counter per (type, identifier, endpoint).
type RateLimiter struct {
	store CounterStore
	rules map[types.RateLimitType]Rule
	now   func() time.Time
}

func NewRateLimiter(store CounterStore, rules map[types.RateLimitType]Rule) *RateLimiter {
	if rules == nil {
		rules = DefaultRules()
	}
	return &RateLimiter{
		store: store,
		rules: rules,
		now:   time.Now,
	}
}

func Key(typ types.RateLimitType, identifier, endpoint string) string {
	return fmt.Sprintf("rate_limit:%s:%s:%s", typ, identifier, endpoint)
}

// Allow checks the current count and only counts the request when the limit
// has not been reached yet.
func (l *RateLimiter) Allow(ctx context.Context, typ types.RateLimitType, identifier, endpoint string) (*models.RateLimitResult, error) {
	rule, ok := l.rules[typ]
	if !ok {
		return nil, fmt.Errorf("rate limit: unknown type %q", typ)
	}
	key := Key(typ, identifier, endpoint)

	count, ttl, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if count >= rule.Limit {
		return l.result(false, rule, count, ttl), nil
	}

	count, ttl, err = l.store.Incr(ctx, key, rule.Window)
	if err != nil {
		return nil, err
	}
	return l.result(true, rule, count, ttl), nil
}

func (l *RateLimiter) Reset(ctx context.Context, typ types.RateLimitType, identifier, endpoint string) error {
	return l.store.Delete(ctx, Key(typ, identifier, endpoint))
}

// ResetAll clears every endpoint counter of identifier.
func (l *RateLimiter) ResetAll(ctx context.Context, typ types.RateLimitType, identifier string) (int64, error) {
	return l.store.DeleteByPattern(ctx, fmt.Sprintf("rate_limit:%s:%s:*", typ, identifier))
}

func (l *RateLimiter) result(allowed bool, rule Rule, count int64, ttl time.Duration) *models.RateLimitResult {
	if ttl <= 0 {
		ttl = rule.Window
	}
	return &models.RateLimitResult{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: max(rule.Limit-count, 0),
		ResetAt:   l.now().Add(ttl),
	}
}
