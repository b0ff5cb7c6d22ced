// Package dimension builds the customer, product, and store dimension
// tables, either fully synthetic or from an extracted source table.
//
// Synthetic mode allocates integer surrogate keys without replacement from a
// bounded range per dimension (an independent allocation scope each). Source
// mode keeps the source's natural key as the surrogate key, deduplicates by
// it with first-occurrence-wins, and fills in the attributes the source does
// not carry from the record generator.
//
// Every builder returns the exact list of surrogate keys it produced; the
// fact builders require those key sets as input.
package dimension

import (
	"fmt"

	"warehouse/internal/dedup"
	"warehouse/internal/records"
	"warehouse/internal/schema"
	"warehouse/internal/synth"
)

// Surrogate key ranges per dimension scope.
const (
	customerKeyMin, customerKeyMax = 1, 10000
	productKeyMin, productKeyMax   = 1, 1000
	storeKeyMin, storeKeyMax       = 1, 100
)

// Result is a built dimension: the persistable table and the surrogate keys
// in row order.
type Result struct {
	Table *records.Table
	Keys  []any
}

// BuildSyntheticCustomers generates n customers with allocator-assigned keys.
func BuildSyntheticCustomers(gen *synth.Generator, n int) (*Result, error) {
	sampler, err := gen.UniqueSampler(customerKeyMin, customerKeyMax)
	if err != nil {
		return nil, err
	}
	res := &Result{Table: records.NewTable(schema.DimCustomer.Name, schema.DimCustomer.ColumnNames()...)}
	for i := 0; i < n; i++ {
		key, err := sampler.Next()
		if err != nil {
			return nil, fmt.Errorf("dim_customer: %w", err)
		}
		res.Table.Rows = append(res.Table.Rows, []any{
			key, gen.Name(), gen.Address(), gen.Email(), gen.Phone(),
		})
		res.Keys = append(res.Keys, key)
	}
	return res, nil
}

// BuildSyntheticProducts generates n products with allocator-assigned keys.
func BuildSyntheticProducts(gen *synth.Generator, n int) (*Result, error) {
	sampler, err := gen.UniqueSampler(productKeyMin, productKeyMax)
	if err != nil {
		return nil, err
	}
	res := &Result{Table: records.NewTable(schema.DimProduct.Name, schema.DimProduct.ColumnNames()...)}
	for i := 0; i < n; i++ {
		key, err := sampler.Next()
		if err != nil {
			return nil, fmt.Errorf("dim_product: %w", err)
		}
		res.Table.Rows = append(res.Table.Rows, []any{
			key, gen.Word(), gen.Word(), gen.Word(),
			gen.AmountBetween(10, 500), gen.Sentence(),
		})
		res.Keys = append(res.Keys, key)
	}
	return res, nil
}

// BuildSyntheticStores generates n stores with allocator-assigned keys.
func BuildSyntheticStores(gen *synth.Generator, n int) (*Result, error) {
	sampler, err := gen.UniqueSampler(storeKeyMin, storeKeyMax)
	if err != nil {
		return nil, err
	}
	res := &Result{Table: records.NewTable(schema.DimStore.Name, schema.DimStore.ColumnNames()...)}
	for i := 0; i < n; i++ {
		key, err := sampler.Next()
		if err != nil {
			return nil, fmt.Errorf("dim_store: %w", err)
		}
		res.Table.Rows = append(res.Table.Rows, []any{key, gen.Company(), gen.City()})
		res.Keys = append(res.Keys, key)
	}
	return res, nil
}

// BuildSequentialStores generates n stores keyed 1..n. Used by the CSV
// pipeline, where the source carries no store identity at all.
func BuildSequentialStores(gen *synth.Generator, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("dim_store: store count must be positive, got %d", n)
	}
	res := &Result{Table: records.NewTable(schema.DimStore.Name, schema.DimStore.ColumnNames()...)}
	for key := 1; key <= n; key++ {
		res.Table.Rows = append(res.Table.Rows, []any{key, gen.Company(), gen.City()})
		res.Keys = append(res.Keys, key)
	}
	return res, nil
}

// BuildCustomersFromSource extracts the customer dimension from a source
// table carrying customer_id and customer_name. Address, email, and phone
// are synthesized per source row before keep-first dedup, so the first
// occurrence of each customer_id keeps the attributes drawn for it.
func BuildCustomersFromSource(gen *synth.Generator, src *records.Table) (*Result, error) {
	idIdx, nameIdx := src.ColumnIndex("customer_id"), src.ColumnIndex("customer_name")
	if idIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("dim_customer: source %s lacks customer_id/customer_name columns", src.Name)
	}
	table := records.NewTable(schema.DimCustomer.Name, schema.DimCustomer.ColumnNames()...)
	for _, row := range src.Rows {
		table.Rows = append(table.Rows, []any{
			row[idIdx], row[nameIdx], gen.Address(), gen.Email(), gen.Phone(),
		})
	}
	return finishSourceDimension(table, "customer_id")
}

// BuildProductsFromSource extracts the product dimension from a source table
// carrying product_id, product_name, product_category, product_subcategory.
// Price and description are synthesized per source row before keep-first
// dedup, so the first occurrence of each product_id keeps its drawn values.
func BuildProductsFromSource(gen *synth.Generator, src *records.Table) (*Result, error) {
	var idx [4]int
	for i, col := range []string{"product_id", "product_name", "product_category", "product_subcategory"} {
		if idx[i] = src.ColumnIndex(col); idx[i] < 0 {
			return nil, fmt.Errorf("dim_product: source %s lacks column %q", src.Name, col)
		}
	}
	table := records.NewTable(schema.DimProduct.Name, schema.DimProduct.ColumnNames()...)
	for _, row := range src.Rows {
		table.Rows = append(table.Rows, []any{
			row[idx[0]], row[idx[1]], row[idx[2]], row[idx[3]],
			gen.AmountBetween(10, 500), gen.Sentence(),
		})
	}
	return finishSourceDimension(table, "product_id")
}

// finishSourceDimension deduplicates by the natural key (first occurrence
// wins) and collects the surviving key list.
func finishSourceDimension(table *records.Table, keyColumn string) (*Result, error) {
	deduped, _, err := dedup.Dedupe(table, []string{keyColumn})
	if err != nil {
		return nil, err
	}
	keyIdx := deduped.ColumnIndex(keyColumn)
	res := &Result{Table: deduped, Keys: make([]any, deduped.Len())}
	for i, row := range deduped.Rows {
		res.Keys[i] = row[keyIdx]
	}
	return res, nil
}
