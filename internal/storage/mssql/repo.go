// Package mssql implements the warehouse repository on SQL Server.
// SQL Server has no single-statement upsert suitable for bulk appends,
// so each row is guarded by a NOT EXISTS probe on the table's primary
// key, all inside one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"warehouse/internal/schema"
)

// Config holds SQL Server repository configuration.
type Config struct {
	DSN string
}

// Repository is a SQL Server-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository connects and verifies the connection.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql ping: %w", err)
	}
	return &Repository{db: db}, nil
}

func msIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = msIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// insertStatement renders a guarded single-row insert. Key columns are
// the indexes of the table's primary key within the column list; when
// the table is unknown to the warehouse schema the guard is dropped and
// the insert is a plain append.
func insertStatement(table string, columns []string, keyIdx []int) string {
	params := make([]string, len(columns))
	for i := range columns {
		params[i] = fmt.Sprintf("@p%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s",
		msIdent(table), identList(columns), strings.Join(params, ", "))
	if len(keyIdx) == 0 {
		return stmt
	}
	guards := make([]string, len(keyIdx))
	for i, ki := range keyIdx {
		guards[i] = fmt.Sprintf("%s = @p%d", msIdent(columns[ki]), ki+1)
	}
	return stmt + fmt.Sprintf(" WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
		msIdent(table), strings.Join(guards, " AND "))
}

func primaryKeyIndexes(table string, columns []string) []int {
	def, ok := schema.ByName(table)
	if !ok {
		return nil
	}
	var idx []int
	for _, c := range def.Columns {
		if !c.PrimaryKey {
			continue
		}
		for i, name := range columns {
			if name == c.Name {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

// InsertRows appends one batch inside a transaction, skipping rows whose
// primary key is already present.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql begin: %w", err)
	}
	defer tx.Rollback()

	stmtSQL := insertStatement(table, columns, primaryKeyIndexes(table, columns))
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("mssql prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mssql: row %d width %d does not match %d columns", i, len(row), len(columns))
		}
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, fmt.Errorf("mssql insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql commit: %w", err)
	}
	return inserted, nil
}

// Exec runs a statement without results.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.db.ExecContext(ctx, sql)
	return err
}

// Close closes the database handle.
func (r *Repository) Close() error { return r.db.Close() }
