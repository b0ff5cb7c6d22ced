// Package postgres implements the warehouse repository on Postgres using
// pgx v5. Batches are COPYed into a temporary staging table and then moved
// into the target with INSERT .. ON CONFLICT DO NOTHING, which keeps reloads
// of already-deduplicated batches idempotent.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by a pgx connection pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// InsertRows appends one batch. The connection is acquired for the duration
// of the batch and released unconditionally.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	staging := "staging_" + strings.ReplaceAll(table, ".", "_")
	create := fmt.Sprintf(
		"CREATE TEMP TABLE IF NOT EXISTS %s AS SELECT %s FROM %s WHERE false",
		pgIdent(staging), identList(columns), pgIdent(table),
	)
	if _, err := conn.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}
	defer func() { _, _ = conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(staging)) }()

	if _, err := conn.CopyFrom(ctx, pgx.Identifier{staging}, columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("copy into staging: %w", err)
	}

	move := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT DO NOTHING",
		pgIdent(table), identList(columns), identList(columns), pgIdent(staging),
	)
	tag, err := conn.Exec(ctx, move)
	if err != nil {
		return 0, fmt.Errorf("move from staging: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Exec runs a statement without results.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
