package storage

import (
	"context"
	"fmt"
	"sync"

	"warehouse/internal/schema"
)

// DDLBootstrapper renders and applies backend-specific DDL for the given
// table definitions, typically CREATE TABLE IF NOT EXISTS via repo.Exec.
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, tables []schema.Table) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for a storage kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema creates the full star schema on the already-open Repository
// using the bootstrapper registered for kind. Callers never see dialect SQL.
func EnsureSchema(ctx context.Context, kind string, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", kind)
	}
	return fn(ctx, repo, schema.LoadOrder())
}
