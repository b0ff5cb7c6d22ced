// Package mysql implements the warehouse repository on MySQL via sqlx and
// the go-sql-driver. Batches are written with multi-row INSERT IGNORE so a
// reload of an already-deduplicated batch inserts nothing.
package mysql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN string // e.g. "root:secret@tcp(localhost:3306)/warehouse_db?parseTime=true"
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sqlx.DB
}

// NewRepository opens and pings a MySQL connection pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	return &Repository{db: db}, nil
}

func myIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = myIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// InsertRows appends one batch with a single multi-row INSERT IGNORE.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: row %d width %d does not match %d columns", i, len(row), len(columns))
		}
		values[i] = placeholder
		args = append(args, row...)
	}
	stmt := fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES %s",
		myIdent(table), identList(columns), strings.Join(values, ", "))
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

// Close closes the connection pool.
func (r *Repository) Close() error { return r.db.Close() }
