package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, goredis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestBlacklistStore(t *testing.T) {
	mr, client := newClient(t)
	store := NewBlacklistStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Add(ctx, models.BlacklistEntry{
		TokenID: "a", ExpiresAt: now.Add(time.Minute), Reason: types.RevokeLogout, BlacklistedAt: now,
	}))
	require.NoError(t, store.Add(ctx, models.BlacklistEntry{
		TokenID: "b", ExpiresAt: now.Add(time.Hour), Reason: types.RevokeAdmin, BlacklistedAt: now,
	}))
	require.NoError(t, store.Add(ctx, models.BlacklistEntry{TokenID: "gone", ExpiresAt: now.Add(-time.Second)}))

	ok, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok, "expired tokens are not stored")

	assert.Equal(t, string(types.RevokeLogout), mr.HGet("blacklist_token:a", "reason"))
	assert.Greater(t, mr.TTL("blacklist_token:a"), time.Duration(0))

	ids, err := store.FindExpired(ctx, now.Add(2*time.Minute).Unix(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	n, err := store.RemoveAll(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.False(t, mr.Exists("blacklist_token:a"))

	ok, err = store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = store.RemoveAll(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCounterStore(t *testing.T) {
	mr, client := newClient(t)
	store := NewCounterStore(client)
	ctx := context.Background()

	count, left, err := store.Get(ctx, "rate_limit:IP_BASED:1.2.3.4:/x")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, left)

	for i := int64(1); i <= 3; i++ {
		count, left, err = store.Incr(ctx, "rate_limit:IP_BASED:1.2.3.4:/x", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.LessOrEqual(t, left, time.Minute)
		assert.Greater(t, left, time.Duration(0))
	}

	count, _, err = store.Get(ctx, "rate_limit:IP_BASED:1.2.3.4:/x")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	mr.FastForward(time.Minute + time.Second)
	count, _, err = store.Get(ctx, "rate_limit:IP_BASED:1.2.3.4:/x")
	require.NoError(t, err)
	assert.Zero(t, count, "window expired")
}

func TestCounterStore_DeleteByPattern(t *testing.T) {
	mr, client := newClient(t)
	store := NewCounterStore(client)
	ctx := context.Background()

	for i := range 150 {
		_, _, err := store.Incr(ctx, fmt.Sprintf("rate_limit:USER_BASED:u1:/e%d", i), time.Minute)
		require.NoError(t, err)
	}
	_, _, err := store.Incr(ctx, "rate_limit:USER_BASED:u2:/e", time.Minute)
	require.NoError(t, err)

	n, err := store.DeleteByPattern(ctx, "rate_limit:USER_BASED:u1:*")
	require.NoError(t, err)
	assert.EqualValues(t, 150, n)
	assert.True(t, mr.Exists("rate_limit:USER_BASED:u2:/e"))

	require.NoError(t, store.Delete(ctx, "rate_limit:USER_BASED:u2:/e"))
	assert.False(t, mr.Exists("rate_limit:USER_BASED:u2:/e"))
}

func TestIdempotencyStore(t *testing.T) {
	mr, client := newClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	res := &models.OnboardingResult{TenantID: uuid.New(), OrganizationID: uuid.New()}
	require.NoError(t, store.Save(ctx, "k", res, time.Hour))

	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, res, got)

	mr.FastForward(time.Hour + time.Second)
	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
