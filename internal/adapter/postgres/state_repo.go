package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"notes/internal/domain"
)

var _ domain.StateStore = (*DB)(nil)

// Get returns the value stored under key.
func (d *DB) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx,
		"SELECT value FROM client_state WHERE key = $1",
		key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO client_state (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// Delete removes keys. Missing keys are ignored.
func (d *DB) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := d.sql.ExecContext(ctx,
		"DELETE FROM client_state WHERE key = ANY($1)",
		pq.Array(keys),
	)
	return err
}
