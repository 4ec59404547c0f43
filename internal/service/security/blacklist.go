package security

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
)

const DefaultCleanupBatch = 500

type BlacklistService struct {
	store BlacklistStore
	now   func() time.Time
	log   logger.Logger
}

func NewBlacklistService(store BlacklistStore, log logger.Logger) *BlacklistService {
	return &BlacklistService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

// Add blacklists a token until it expires. Tokens that are already expired
// are ignored.
func (s *BlacklistService) Add(ctx context.Context, entry models.BlacklistEntry) error {
	if entry.TokenID == "" {
		return fmt.Errorf("blacklist: empty token id")
	}
	now := s.now()
	if !entry.ExpiresAt.After(now) {
		return nil
	}
	if entry.BlacklistedAt.IsZero() {
		entry.BlacklistedAt = now
	}
	if err := s.store.Add(ctx, entry); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.WithLabelValues(string(entry.Reason)).Inc()
	return nil
}

func (s *BlacklistService) Exists(ctx context.Context, tokenID string) (bool, error) {
	return s.store.Exists(ctx, tokenID)
}

// Cleanup removes expired entries in batches until none are left and
// returns how many were removed.
func (s *BlacklistService) Cleanup(ctx context.Context, batch int64) (int64, error) {
	ctx = wrap.WithAction(ctx, types.ActionBlacklistCleanup)
	if batch <= 0 {
		batch = DefaultCleanupBatch
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		ids, err := s.store.FindExpired(ctx, s.now().Unix(), batch)
		if err != nil {
			return total, wrap.Error(ctx, fmt.Errorf("failed to find expired entries: %w", err))
		}
		if len(ids) == 0 {
			break
		}

		n, err := s.store.RemoveAll(ctx, ids)
		if err != nil {
			return total, wrap.Error(ctx, fmt.Errorf("failed to remove expired entries: %w", err))
		}
		total += n

		if int64(len(ids)) < batch {
			break
		}
	}

	if total > 0 {
		metrics.BlacklistCleanedTotal.Add(float64(total))
		s.log.Info(ctx, "blacklist cleaned", "removed", total)
	}
	return total, nil
}

// RunJanitor runs Cleanup every interval until ctx is done.
func (s *BlacklistService) RunJanitor(ctx context.Context, interval time.Duration, batch int64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, batch); err != nil && ctx.Err() == nil {
				s.log.Error(wrap.ErrorCtx(ctx, err), "blacklist cleanup failed", err)
			}
		}
	}
}
