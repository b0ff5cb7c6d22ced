// This file wires the MySQL backend into the storage-agnostic factory.
package mysql

import (
	"context"

	"warehouse/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// init registers the "mysql" backend and its DDL bootstrapper.
func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN})
	})
	storage.RegisterDDL("mysql", bootstrapDDL)
}
