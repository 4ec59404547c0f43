package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	goredis "github.com/redis/go-redis/v9"
)

const (
	blacklistSetKey    = "blacklist:tokens"
	blacklistExpiryKey = "blacklist:expiry"
	blacklistEntryKey  = "blacklist_token:"
)

// BlacklistStore keeps revoked token ids in a set for lookups, a sorted set
// ordered by expiry for cleanup and a hash per token with its details.
type BlacklistStore struct {
	client goredis.UniversalClient
}

func NewBlacklistStore(client goredis.UniversalClient) *BlacklistStore {
	return &BlacklistStore{client: client}
}

func (s *BlacklistStore) Add(ctx context.Context, entry models.BlacklistEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SAdd(ctx, blacklistSetKey, entry.TokenID)
		p.ZAdd(ctx, blacklistExpiryKey, goredis.Z{Score: float64(entry.ExpiresAt.Unix()), Member: entry.TokenID})
		key := blacklistEntryKey + entry.TokenID
		p.HSet(ctx, key, map[string]any{
			"reason":         string(entry.Reason),
			"expires_at":     entry.ExpiresAt.UTC().Format(time.RFC3339),
			"blacklisted_at": entry.BlacklistedAt.UTC().Format(time.RFC3339),
		})
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	return nil
}

func (s *BlacklistStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, blacklistSetKey, tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist exists: %w", err)
	}
	return ok, nil
}

func (s *BlacklistStore) FindExpired(ctx context.Context, maxEpoch int64, limit int64) ([]string, error) {
	ids, err := s.client.ZRangeByScore(ctx, blacklistExpiryKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(maxEpoch, 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("blacklist find expired: %w", err)
	}
	return ids, nil
}

// RemoveAll drops tokens from every structure and returns how many were tracked.
func (s *BlacklistStore) RemoveAll(ctx context.Context, tokenIDs []string) (int64, error) {
	if len(tokenIDs) == 0 {
		return 0, nil
	}

	members := make([]any, len(tokenIDs))
	keys := make([]string, len(tokenIDs))
	for i, id := range tokenIDs {
		members[i] = id
		keys[i] = blacklistEntryKey + id
	}

	var removed *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SRem(ctx, blacklistSetKey, members...)
		removed = p.ZRem(ctx, blacklistExpiryKey, members...)
		p.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("blacklist remove: %w", err)
	}
	return removed.Val(), nil
}
