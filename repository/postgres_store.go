package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fairbook/database"
	"fairbook/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// PostgresStore is a KVStore backed by the kv tables created by the
// migrations. TTL expiry is enforced on read; expired rows are overwritten
// by the next write to the same key.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a store over an established connection pool
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) AppendToList(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO kv_list_entries (key, value) VALUES ($1, $2)`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to append to list %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	query := `SELECT value FROM kv_list_entries WHERE key = $1 ORDER BY id`

	rows, err := s.db.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan list entry: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list %s: %w", key, err)
	}
	return values, nil
}

func (s *PostgresStore) AddToSet(ctx context.Context, key string, value string) error {
	query := `
		INSERT INTO kv_set_members (key, member) VALUES ($1, $2)
		ON CONFLICT (key, member) DO NOTHING`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to add to set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) GetSet(ctx context.Context, key string) ([]string, error) {
	query := `SELECT member FROM kv_set_members WHERE key = $1 ORDER BY member`

	rows, err := s.db.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read set %s: %w", key, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan set member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate set %s: %w", key, err)
	}
	return members, nil
}

// Close is a no-op; the connection pool is owned by the caller
func (s *PostgresStore) Close() error {
	return nil
}
