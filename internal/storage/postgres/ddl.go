// Postgres DDL rendering for the star schema.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"warehouse/internal/schema"
	"warehouse/internal/storage"
)

func sqlType(t schema.TypeClass) (string, error) {
	switch t {
	case schema.TypeInt:
		return "INTEGER", nil
	case schema.TypeText:
		return "TEXT", nil
	case schema.TypeReal:
		return "DOUBLE PRECISION", nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("postgres ddl: unknown type class %q", t)
	}
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for the
// given table definition, with the primary key as a table constraint.
func BuildCreateTableSQL(t schema.Table) (string, error) {
	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		typ, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		def := pgIdent(c.Name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, pgIdent(c.Name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		pgIdent(t.Name), strings.Join(cols, ",\n  ")), nil
}

func bootstrapDDL(ctx context.Context, repo storage.Repository, tables []schema.Table) error {
	for _, t := range tables {
		stmt, err := BuildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return nil
}
