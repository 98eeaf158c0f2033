package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres stores values in the kv_entries table created by database.Migrate.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type entry struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
	SELECT
		key, value, updated_at
	FROM
		kv_entries
	WHERE
		key = $1`

	var e entry
	if err := sqlx.GetContext(ctx, p.db, &e, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting kv entry[%s]: %w", key, err)
	}
	return e.Value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	const q = `
	INSERT INTO kv_entries
		(key, value, updated_at)
	VALUES
		(:key, :value, :updated_at)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at`

	e := entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := sqlx.NamedExecContext(ctx, p.db, q, e); err != nil {
		return fmt.Errorf("upserting kv entry[%s]: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	const q = `
	DELETE FROM
		kv_entries
	WHERE
		key = $1`

	if _, err := p.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("deleting kv entry[%s]: %w", key, err)
	}
	return nil
}
