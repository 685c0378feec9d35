package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loadvoice/internal/carrier"
	"loadvoice/pkg/sentinel"
)

// Redis key prefix for verification records.
const verificationKeyPrefix = "verify:carrier:"

// RedisStore is the production cache for multi-instance deployments. Records
// are stored as JSON with a physical TTL of logical TTL plus StaleRetention,
// so a record is still retrievable for stale fallback after its logical
// expiry.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisClock pins the clock used to compute physical TTLs in tests.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Find(ctx context.Context, key string) (*carrier.VerificationRecord, error) {
	data, err := s.client.Get(ctx, verificationKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find verification record: %w", err)
	}

	var record carrier.VerificationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode verification record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, record carrier.VerificationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}

	ttl := record.CacheExpiresAt.Sub(s.now()) + StaleRetention
	if ttl <= 0 {
		ttl = StaleRetention
	}

	if err := s.client.Set(ctx, verificationKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, verificationKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("invalidate verification record: %w", err)
	}
	return nil
}
