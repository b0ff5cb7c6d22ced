// This file wires the SQL Server backend into the storage-agnostic factory.
package mssql

import (
	"context"

	"warehouse/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// init registers the "mssql" backend and its DDL bootstrapper.
func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN})
	})
	storage.RegisterDDL("mssql", bootstrapDDL)
}
