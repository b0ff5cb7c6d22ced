package storage

import (
	"context"
	"strings"
	"testing"

	"warehouse/internal/schema"
)

type fakeRepo struct {
	inserted map[string][][]any
	execed   []string
	closed   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{inserted: map[string][][]any{}}
}

func (f *fakeRepo) InsertRows(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	f.inserted[table] = append(f.inserted[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execed = append(f.execed, sql)
	return nil
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func TestNewDispatchesByKind(t *testing.T) {
	var gotCfg Config
	Register("fake-dispatch", func(_ context.Context, cfg Config) (Repository, error) {
		gotCfg = cfg
		return newFakeRepo(), nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake-dispatch", DSN: "dsn://x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	if gotCfg.DSN != "dsn://x" {
		t.Errorf("factory got DSN %q, want %q", gotCfg.DSN, "dsn://x")
	}
}

func TestNewUnsupportedKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
	if !strings.Contains(err.Error(), "no-such-backend") {
		t.Errorf("error %q does not name the kind", err)
	}
}

func TestListKindsSorted(t *testing.T) {
	Register("fake-zeta", func(context.Context, Config) (Repository, error) { return newFakeRepo(), nil })
	Register("fake-alpha", func(context.Context, Config) (Repository, error) { return newFakeRepo(), nil })

	kinds := ListKinds()
	var zi, ai = -1, -1
	for i, k := range kinds {
		switch k {
		case "fake-zeta":
			zi = i
		case "fake-alpha":
			ai = i
		}
	}
	if ai < 0 || zi < 0 {
		t.Fatalf("registered kinds missing from %v", kinds)
	}
	if ai > zi {
		t.Errorf("kinds not sorted: %v", kinds)
	}
}

func TestEnsureSchemaRunsDDLInLoadOrder(t *testing.T) {
	var got []string
	RegisterDDL("fake-ddl", func(_ context.Context, _ Repository, tables []schema.Table) error {
		for _, tb := range tables {
			got = append(got, tb.Name)
		}
		return nil
	})

	if err := EnsureSchema(context.Background(), "fake-ddl", newFakeRepo()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	want := make([]string, 0, len(schema.LoadOrder()))
	for _, tb := range schema.LoadOrder() {
		want = append(want, tb.Name)
	}
	if len(got) != len(want) {
		t.Fatalf("bootstrapped %d tables, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("table %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEnsureSchemaUnknownKind(t *testing.T) {
	if err := EnsureSchema(context.Background(), "no-such-ddl", newFakeRepo()); err == nil {
		t.Fatal("expected error for kind without a DDL bootstrapper")
	}
}
