package security

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlacklist struct {
	entries map[string]models.BlacklistEntry
}

func (m *memBlacklist) Add(_ context.Context, e models.BlacklistEntry) error {
	m.entries[e.TokenID] = e
	return nil
}

func (m *memBlacklist) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.entries[id]
	return ok, nil
}

func (m *memBlacklist) FindExpired(_ context.Context, maxEpoch, limit int64) ([]string, error) {
	var ids []string
	for id, e := range m.entries {
		if e.ExpiresAt.Unix() <= maxEpoch {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memBlacklist) RemoveAll(_ context.Context, ids []string) (int64, error) {
	for _, id := range ids {
		delete(m.entries, id)
	}
	return int64(len(ids)), nil
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	store := &memBlacklist{entries: make(map[string]models.BlacklistEntry)}
	svc := NewBlacklistService(store, logger.New(io.Discard, "test", logger.LevelError))

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Add(ctx, models.BlacklistEntry{TokenID: "live", ExpiresAt: now.Add(time.Hour), Reason: types.RevokeLogout}))
	require.NoError(t, svc.Add(ctx, models.BlacklistEntry{TokenID: "dead", ExpiresAt: now.Add(-time.Second)}))
	assert.Error(t, svc.Add(ctx, models.BlacklistEntry{ExpiresAt: now.Add(time.Hour)}))

	ok, err := svc.Exists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, "dead")
	require.NoError(t, err)
	assert.False(t, ok, "expired tokens are not stored")
	assert.False(t, store.entries["live"].BlacklistedAt.IsZero())
}

func TestBlacklistCleanupBatches(t *testing.T) {
	ctx := context.Background()
	store := &memBlacklist{entries: make(map[string]models.BlacklistEntry)}
	svc := NewBlacklistService(store, logger.New(io.Discard, "test", logger.LevelError))

	now := time.Now().UTC()
	for i := range 7 {
		id := strings.Repeat("x", i+1)
		store.entries[id] = models.BlacklistEntry{TokenID: id, ExpiresAt: now.Add(-time.Minute)}
	}
	store.entries["keep"] = models.BlacklistEntry{TokenID: "keep", ExpiresAt: now.Add(time.Hour)}

	removed, err := svc.Cleanup(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 7, removed)
	assert.Len(t, store.entries, 1)

	removed, err = svc.Cleanup(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

type memCounters struct {
	counts map[string]int64
}

func (m *memCounters) Get(_ context.Context, key string) (int64, time.Duration, error) {
	return m.counts[key], time.Minute, nil
}

func (m *memCounters) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.counts[key]++
	return m.counts[key], window, nil
}

func (m *memCounters) Delete(_ context.Context, key string) error {
	delete(m.counts, key)
	return nil
}

func (m *memCounters) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.counts {
		if strings.HasPrefix(k, prefix) {
			delete(m.counts, k)
			n++
		}
	}
	return n, nil
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	store := &memCounters{counts: make(map[string]int64)}
	limiter := NewRateLimiter(store, map[types.RateLimitType]Rule{
		types.RateLimitIP: {Limit: 3, Window: time.Minute},
	})

	for i := range 3 {
		res, err := limiter.Allow(ctx, types.RateLimitIP, "10.0.0.1", "/api/v1/auth/login")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.EqualValues(t, 2-i, res.Remaining)
		assert.EqualValues(t, 3, res.Limit)
	}

	res, err := limiter.Allow(ctx, types.RateLimitIP, "10.0.0.1", "/api/v1/auth/login")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.True(t, res.ResetAt.After(time.Now()))
	assert.EqualValues(t, 3, store.counts[Key(types.RateLimitIP, "10.0.0.1", "/api/v1/auth/login")], "rejected requests are not counted")

	res, err = limiter.Allow(ctx, types.RateLimitIP, "10.0.0.1", "/api/v1/auth/me")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, types.RateLimitIP, "10.0.0.1", "/api/v1/auth/login"))
	res, err = limiter.Allow(ctx, types.RateLimitIP, "10.0.0.1", "/api/v1/auth/login")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	n, err := limiter.ResetAll(ctx, types.RateLimitIP, "10.0.0.1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = limiter.Allow(ctx, types.RateLimitUser, "u", "/")
	assert.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	assert.EqualValues(t, 100, rules[types.RateLimitIP].Limit)
	assert.EqualValues(t, 1000, rules[types.RateLimitUser].Limit)
	assert.EqualValues(t, 5000, rules[types.RateLimitEndpoint].Limit)
}
