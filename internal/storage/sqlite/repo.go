// Package sqlite implements the warehouse repository on SQLite via the
// modernc pure-Go driver. It is the development and smoke-test target;
// INSERT OR IGNORE gives the same duplicate-tolerant semantics as the
// server backends.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds SQLite repository configuration.
type Config struct {
	// Path is the database file path, or ":memory:".
	Path string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (and creates if needed) the database file.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &Repository{db: db}, nil
}

func liteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = liteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// normalize rewrites values the driver cannot bind directly: dates are
// stored in their canonical textual form.
func normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02")
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

// InsertRows appends one batch with a single multi-row INSERT OR IGNORE.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: row %d width %d does not match %d columns", i, len(row), len(columns))
		}
		values[i] = placeholder
		for _, v := range row {
			args = append(args, normalize(v))
		}
	}
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES %s",
		liteIdent(table), identList(columns), strings.Join(values, ", "))
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Exec runs a statement without results.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.db.ExecContext(ctx, sql)
	return err
}

// Close closes the database handle.
func (r *Repository) Close() error { return r.db.Close() }
