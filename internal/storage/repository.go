// Package storage contains the storage-agnostic contracts used by the
// warehouse loader: the Repository interface, a factory registry keyed by
// storage kind, and the batched load helper.
//
// Concrete backends (mysql, postgres, sqlite, mssql) live in subpackages and
// register themselves with the factory at init time; importing
// warehouse/internal/storage/all (typically as a blank import in the wiring
// layer) makes every built-in backend available.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the backend, e.g. "mysql", "postgres", "sqlite", "mssql".
	Kind string

	// DSN is the backend connection string.
	DSN string
}

// Repository is the minimal write surface the warehouse loader needs.
//
// InsertRows must be duplicate-tolerant: a row whose primary key already
// exists in the target table is silently skipped, not an error. That
// property is what makes re-loading an already-deduplicated batch a no-op.
// The returned count is the number of rows actually inserted.
type Repository interface {
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement without results (DDL bootstrap).
	Exec(ctx context.Context, sql string) error

	Close() error
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. Backends
// call it from their init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New constructs a Repository for cfg.Kind, or an error naming the known
// kinds when the kind is unregistered.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered storage kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
