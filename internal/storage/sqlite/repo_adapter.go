// This file wires the SQLite backend into the storage-agnostic factory.
package sqlite

import (
	"context"

	"warehouse/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// init registers the "sqlite" backend and its DDL bootstrapper. The
// configured DSN is interpreted as the database file path.
func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, Config{Path: cfg.DSN})
	})
	storage.RegisterDDL("sqlite", bootstrapDDL)
}
