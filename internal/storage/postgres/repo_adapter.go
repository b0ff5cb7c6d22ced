// This file wires the Postgres backend into the storage-agnostic factory.
package postgres

import (
	"context"

	"warehouse/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// init registers the "postgres" backend and its DDL bootstrapper.
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN})
	})
	storage.RegisterDDL("postgres", bootstrapDDL)
}
