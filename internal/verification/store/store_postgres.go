package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loadvoice/internal/carrier"
	"loadvoice/pkg/requestcontext"
	"loadvoice/pkg/sentinel"
)

// PostgresStore persists verification records in a single upsert table. It
// suits deployments that already run Postgres and want the cache to survive
// restarts without adding Redis.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS carrier_verifications (
			cache_key        TEXT PRIMARY KEY,
			record           JSONB NOT NULL,
			cache_expires_at TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure carrier_verifications schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, key string) (*carrier.VerificationRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM carrier_verifications WHERE cache_key = $1`, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) Save(ctx context.Context, key string, record carrier.VerificationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO carrier_verifications (cache_key, record, cache_expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (cache_key) DO UPDATE
		SET record = EXCLUDED.record,
		    cache_expires_at = EXCLUDED.cache_expires_at,
		    updated_at = now()`,
		key, data, record.CacheExpiresAt)
	if err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Invalidate(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM carrier_verifications WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("invalidate verification record: %w", err)
	}
	return nil
}

// PurgeExpired deletes records whose stale-retention window has fully
// elapsed. Intended for a periodic maintenance job; the read path never
// depends on it.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := requestcontext.Now(ctx).Add(-StaleRetention)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM carrier_verifications WHERE cache_expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired verification records: %w", err)
	}
	return tag.RowsAffected(), nil
}
