package dimension

import (
	"errors"
	"math/rand"
	"testing"

	"warehouse/internal/keyset"
	"warehouse/internal/records"
	"warehouse/internal/synth"
)

func gen(seed int64) *synth.Generator {
	return synth.New(rand.New(rand.NewSource(seed)))
}

func TestBuildSyntheticCustomersUniqueKeys(t *testing.T) {
	t.Parallel()

	res, err := BuildSyntheticCustomers(gen(1), 100)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if res.Table.Len() != 100 || len(res.Keys) != 100 {
		t.Fatalf("got %d rows / %d keys, want 100", res.Table.Len(), len(res.Keys))
	}
	seen := map[any]bool{}
	for i, k := range res.Keys {
		key := k.(int)
		if key < 1 || key > 10000 {
			t.Fatalf("key %d outside [1, 10000]", key)
		}
		if seen[k] {
			t.Fatalf("duplicate key %v", k)
		}
		seen[k] = true
		if res.Table.Rows[i][0] != k {
			t.Fatalf("key list out of sync with table at row %d", i)
		}
	}
}

func TestBuildSyntheticStoresRangeExhaustion(t *testing.T) {
	t.Parallel()

	// The store key space is [1, 100]; asking for more must fail fast.
	_, err := BuildSyntheticStores(gen(1), 101)
	var re *keyset.RangeExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("got err %v, want *RangeExhaustedError", err)
	}
}

func TestBuildSyntheticProductsAttributes(t *testing.T) {
	t.Parallel()

	res, err := BuildSyntheticProducts(gen(3), 50)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	priceIdx := res.Table.ColumnIndex("product_price")
	for _, row := range res.Table.Rows {
		price := row[priceIdx].(float64)
		if price < 10 || price >= 500.005 {
			t.Fatalf("price %v outside [10, 500)", price)
		}
	}
}

func TestBuildSequentialStores(t *testing.T) {
	t.Parallel()

	res, err := BuildSequentialStores(gen(4), 10)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	for i, k := range res.Keys {
		if k.(int) != i+1 {
			t.Fatalf("Keys[%d]=%v, want %d", i, k, i+1)
		}
	}
	if _, err := BuildSequentialStores(gen(4), 0); err == nil {
		t.Fatal("expected error for zero store count")
	}
}

func sourceTable() *records.Table {
	src := records.NewTable("superstore",
		"customer_id", "customer_name", "product_id", "product_name",
		"product_category", "product_subcategory")
	src.Rows = [][]any{
		{"C1", "Alice", "P1", "Chair", "Furniture", "Chairs"},
		{"C2", "Bob", "P2", "Desk", "Furniture", "Tables"},
		{"C1", "Alice", "P1", "Chair", "Furniture", "Chairs"}, // repeat order line
		{"C3", "Carol", "P2", "Desk", "Furniture", "Tables"},
	}
	return src
}

func TestBuildCustomersFromSourceDedupes(t *testing.T) {
	t.Parallel()

	res, err := BuildCustomersFromSource(gen(5), sourceTable())
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if res.Table.Len() != 3 {
		t.Fatalf("got %d customers, want 3", res.Table.Len())
	}
	want := []any{"C1", "C2", "C3"}
	for i, k := range want {
		if res.Keys[i] != k {
			t.Fatalf("Keys[%d]=%v, want %v (first occurrence order)", i, res.Keys[i], k)
		}
	}
	// Synthesized attributes are attached.
	emailIdx := res.Table.ColumnIndex("customer_email")
	if res.Table.Rows[0][emailIdx] == "" || res.Table.Rows[0][emailIdx] == nil {
		t.Fatal("missing synthesized email")
	}
}

func TestBuildProductsFromSourceDedupes(t *testing.T) {
	t.Parallel()

	res, err := BuildProductsFromSource(gen(6), sourceTable())
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if res.Table.Len() != 2 {
		t.Fatalf("got %d products, want 2", res.Table.Len())
	}
	if res.Keys[0] != "P1" || res.Keys[1] != "P2" {
		t.Fatalf("unexpected keys %v", res.Keys)
	}
}

func TestBuildFromSourceMissingColumns(t *testing.T) {
	t.Parallel()

	src := records.NewTable("bare", "something_else")
	if _, err := BuildCustomersFromSource(gen(7), src); err == nil {
		t.Fatal("expected error for missing customer columns")
	}
	if _, err := BuildProductsFromSource(gen(7), src); err == nil {
		t.Fatal("expected error for missing product columns")
	}
}
