package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectoryConcatenatesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Customer ID,Customer Name\nC1,Alice\nC2,Bob\n")
	writeFile(t, dir, "b.csv", "Customer ID,Customer Name\nC3,Carol\n")

	got, err := Directory(context.Background(), Options{
		Dir:       dir,
		HeaderMap: map[string]string{"Customer ID": "customer_id", "Customer Name": "customer_name"},
	})
	if err != nil {
		t.Fatalf("Directory error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("got %d rows, want 3", got.Len())
	}
	if got.Columns[0] != "customer_id" || got.Columns[1] != "customer_name" {
		t.Fatalf("unexpected columns %v", got.Columns)
	}
	if got.Rows[2][0] != "C3" {
		t.Fatalf("file order not preserved: %v", got.Rows)
	}
}

func TestDirectorySchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,name\n1,x\n")
	writeFile(t, dir, "b.csv", "id,label\n2,y\n")

	_, err := Directory(context.Background(), Options{Dir: dir})
	var sm *SchemaMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("got err %v, want *SchemaMismatchError", err)
	}
	if sm.File != "b.csv" {
		t.Fatalf("mismatch blamed on %q, want b.csv", sm.File)
	}
}

func TestDirectoryFoldsHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "\uFEFFOrder Déte, Sub-Category\n2020-01-01,Chairs\n")

	got, err := Directory(context.Background(), Options{Dir: dir, FoldHeaders: true})
	if err != nil {
		t.Fatalf("Directory error: %v", err)
	}
	want := []string{"order_dete", "sub_category"}
	for i, c := range want {
		if got.Columns[i] != c {
			t.Fatalf("Columns[%d]=%q, want %q", i, got.Columns[i], c)
		}
	}
}

func TestDirectorySkipsShortRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,name\n1,x\n2\n3,z\n")

	got, err := Directory(context.Background(), Options{Dir: dir})
	if err != nil {
		t.Fatalf("Directory error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("got %d rows, want 2 (short row skipped)", got.Len())
	}
}

func TestDirectoryEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := Directory(context.Background(), Options{Dir: t.TempDir()}); err == nil {
		t.Fatal("expected error for directory without csv files")
	}
}

func TestDirectoryCanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id\n1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Directory(ctx, Options{Dir: dir}); !errors.Is(err, context.Canceled) {
		t.Fatalf("got err %v, want context.Canceled", err)
	}
}
