// Package records defines the in-memory row and table model shared by all
// pipeline stages. It is intentionally small and dependency-free so that
// builders, transformers, and storage backends can exchange data without
// additional glue code.
package records

import "fmt"

// Record is a single logical row keyed by canonical column name.
type Record map[string]any

// Table is an ordered, in-memory relational table. Columns fixes both the
// column set and the value order of every row; Rows are positional and
// aligned to Columns.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given name and column order.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds one positional row. The row width must match the column set.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row width %d does not match %d columns", t.Name, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendRecord adds a row from a Record, aligning values to the table's
// column order. Missing keys become nil.
func (t *Table) AppendRecord(rec Record) {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = rec[c]
	}
	t.Rows = append(t.Rows, row)
}

// Record materializes row i as a Record. It is a convenience for tests and
// per-row logic; bulk paths should index positionally instead.
func (t *Table) Record(i int) Record {
	rec := make(Record, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = t.Rows[i][j]
	}
	return rec
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("table %s: no column %q", t.Name, name)
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}
