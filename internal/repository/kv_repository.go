package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// KVRepository stores JSON-encoded values in the settings table.
type KVRepository struct {
	db *sql.DB
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get decodes the value stored under key into dest.
// Returns ErrNotFound if the key does not exist.
func (r *KVRepository) Get(ctx context.Context, key string, dest any) error {
	var raw string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT value FROM settings WHERE key = ?`,
		key,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Set(ctx context.Context, key string, value any) error {
	return setKV(ctx, r.db, key, value)
}

func setKV(ctx context.Context, exec execer, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	_, err = exec.ExecContext(
		ctx,
		`INSERT INTO settings (key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     value = excluded.value,
		     updated_at = excluded.updated_at`,
		key,
		string(encoded),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}
