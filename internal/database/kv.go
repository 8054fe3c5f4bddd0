package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresKV implements kv.Store on a single kv_entries table.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV wraps pool. Call EnsureSchema once before use.
func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

// EnsureSchema creates the kv_entries table if it does not exist.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, kvSchema); err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	q := `
	INSERT INTO kv_entries (key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, key, value)
		return err
	})
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
