// SQL Server DDL rendering for the star schema.
package mssql

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
		return "INT", nil
	case schema.TypeText:
		// NVARCHAR with a length so key columns remain indexable.
		return "NVARCHAR(255)", nil
	case schema.TypeReal:
		return "FLOAT", nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeBool:
		return "BIT", nil
	default:
		return "", fmt.Errorf("mssql ddl: unknown type class %q", t)
	}
}

// BuildCreateTableSQL returns a guarded CREATE TABLE statement for the given
// table definition. SQL Server predates IF NOT EXISTS on CREATE TABLE, hence
// the catalog probe.
func BuildCreateTableSQL(t schema.Table) (string, error) {
	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		typ, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		def := msIdent(c.Name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, msIdent(c.Name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n)",
		t.Name, msIdent(t.Name), strings.Join(cols, ",\n  ")), nil
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
