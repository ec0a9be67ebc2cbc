package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CacheGet returns the cached value for key, or ok=false on a miss or an
// expired entry.
func (s *Store) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM cache
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?);`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key, time.Now().UTC().Format(time.RFC3339)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return value, true, nil
}

// CacheSet stores value under key. A zero ttl means the entry never
// expires.
func (s *Store) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl != 0 {
		expiresAt = time.Now().UTC().Add(ttl).Format(time.RFC3339)
	}

	query := `INSERT INTO cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at;`

	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// CacheDelete removes a cache entry. Deleting a missing key is not an
// error.
func (s *Store) CacheDelete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?;`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PruneExpiredCache removes cache rows past their expiry.
func (s *Store) PruneExpiredCache(ctx context.Context) (int64, error) {
	query := `DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?;`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
