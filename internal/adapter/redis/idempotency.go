package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	goredis "github.com/redis/go-redis/v9"
)

const onboardingKeyPrefix = "idempotency:onboarding:"

// IdempotencyStore keeps onboarding results by client supplied key.
type IdempotencyStore struct {
	client goredis.UniversalClient
}

func NewIdempotencyStore(client goredis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*models.OnboardingResult, error) {
	data, err := s.client.Get(ctx, onboardingKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency get: %w", err)
	}

	var res models.OnboardingResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return &res, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, result *models.OnboardingResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.client.Set(ctx, onboardingKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency save: %w", err)
	}
	return nil
}
