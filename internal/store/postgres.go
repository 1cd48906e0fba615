package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores the workspace document as a single jsonb row keyed by
// StateKey. A one-row table is deliberate: the document is small, writes
// replace it wholesale, and it keeps the store semantically identical to
// the key-value model the rest of the code assumes.
type Postgres struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgres creates a Postgres store over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, key: StateKey}
}

// EnsureSchema creates the backing table if it does not exist.
// Safe to call on every startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS app_state (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure app_state schema: %w", err)
	}
	return nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM app_state WHERE key = $1`, p.key,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace state: %w", err)
	}
	return doc, nil
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, doc []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p.key, doc)
	if err != nil {
		return fmt.Errorf("save workspace state: %w", err)
	}
	return nil
}

// SavedAt implements Store.
func (p *Postgres) SavedAt(ctx context.Context) (time.Time, error) {
	var ts pgtype.Timestamptz
	err := p.pool.QueryRow(ctx,
		`SELECT updated_at FROM app_state WHERE key = $1`, p.key,
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read workspace state timestamp: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, ErrNotFound
	}
	return ts.Time, nil
}
