// Package fact assembles the sales and inventory fact tables and resolves
// their foreign keys against the key sets produced by the dimension
// builders.
//
// Two resolution policies exist and are never mixed within one column:
//
//   - explicit join: the source row carries its own identifiers; dates are
//     resolved against the time dimension with an exact match, and a miss is
//     a *JoinResolutionError (the fact build aborts rather than loading a
//     row with a null or garbage key).
//   - sampled assignment: foreign keys are drawn independently and uniformly
//     from each dimension's key set, per fact row.
//
// Referential integrity is therefore established at build time: every
// foreign key on an emitted row is a member of the corresponding dimension
// key set.
package fact

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"warehouse/internal/records"
	"warehouse/internal/schema"
	"warehouse/internal/synth"
	"warehouse/internal/timedim"
)

// Fact primary keys share the original's [1, 10000] synthetic id space.
const factKeyMin, factKeyMax = 1, 10000

// JoinResolutionError reports a source date with no matching time-dimension
// row during explicit-join resolution.
type JoinResolutionError struct {
	Table string
	Date  string
}

func (e *JoinResolutionError) Error() string {
	return fmt.Sprintf("%s: date %q has no matching dim_time row", e.Table, e.Date)
}

// KeySets carries the dimension key sets a sampled fact build draws from.
type KeySets struct {
	Customers []any
	Products  []any
	Stores    []any
	TimeIDs   []int
}

func requireKeys(table, name string, n int) error {
	if n == 0 {
		return fmt.Errorf("%s: empty %s key set", table, name)
	}
	return nil
}

// BuildSampledSales emits n sales rows with every foreign key drawn
// independently per row from the given key sets. Measures: quantity_sold in
// [1, 10], total_sale_amount in [10, 500) rounded to 2 decimals.
func BuildSampledSales(gen *synth.Generator, n int, keys KeySets) (*records.Table, error) {
	for _, k := range []struct {
		name string
		n    int
	}{
		{"customer", len(keys.Customers)},
		{"product", len(keys.Products)},
		{"store", len(keys.Stores)},
		{"time", len(keys.TimeIDs)},
	} {
		if err := requireKeys(schema.FactSales.Name, k.name, k.n); err != nil {
			return nil, err
		}
	}
	sampler, err := gen.UniqueSampler(factKeyMin, factKeyMax)
	if err != nil {
		return nil, err
	}
	table := records.NewTable(schema.FactSales.Name, schema.FactSales.ColumnNames()...)
	for i := 0; i < n; i++ {
		saleID, err := sampler.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.FactSales.Name, err)
		}
		table.Rows = append(table.Rows, []any{
			saleID,
			keys.Products[gen.Choice(len(keys.Products))],
			keys.Stores[gen.Choice(len(keys.Stores))],
			keys.Customers[gen.Choice(len(keys.Customers))],
			keys.TimeIDs[gen.Choice(len(keys.TimeIDs))],
			gen.IntBetween(1, 10),
			gen.AmountBetween(10, 500),
		})
	}
	return table, nil
}

// BuildSampledInventory emits n inventory rows: product and store sampled
// per row, stock_level in [0, 500], last_updated a uniform date within the
// given year.
func BuildSampledInventory(gen *synth.Generator, n int, keys KeySets, year int) (*records.Table, error) {
	if err := requireKeys(schema.FactInventory.Name, "product", len(keys.Products)); err != nil {
		return nil, err
	}
	if err := requireKeys(schema.FactInventory.Name, "store", len(keys.Stores)); err != nil {
		return nil, err
	}
	sampler, err := gen.UniqueSampler(factKeyMin, factKeyMax)
	if err != nil {
		return nil, err
	}
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearDays := 365
	if yearStart.AddDate(1, 0, 0).Sub(yearStart).Hours() > 365*24 {
		yearDays = 366
	}
	table := records.NewTable(schema.FactInventory.Name, schema.FactInventory.ColumnNames()...)
	for i := 0; i < n; i++ {
		invID, err := sampler.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.FactInventory.Name, err)
		}
		table.Rows = append(table.Rows, []any{
			invID,
			keys.Products[gen.Choice(len(keys.Products))],
			keys.Stores[gen.Choice(len(keys.Stores))],
			gen.IntBetween(0, 500),
			yearStart.AddDate(0, 0, gen.Choice(yearDays)),
		})
	}
	return table, nil
}

// SourceOptions configures explicit-join sales construction from an
// extracted source table.
type SourceOptions struct {
	// DateColumn names the source column carrying the order date.
	DateColumn string

	// DateLayouts are tried in order when parsing source dates.
	DateLayouts []string
}

// salesSourceColumns are the canonical source columns an explicit-join sales
// build consumes, beside the date column.
var salesSourceColumns = []string{"sale_id", "product_id", "customer_id", "quantity_sold", "total_sale_amount"}

// BuildSalesFromSource assembles fact_sales from a source table whose rows
// carry their own sale, product, and customer identifiers plus an order
// date. time_id is resolved by exact join against dim; a date outside the
// dimension's coverage aborts with *JoinResolutionError. The store key is
// the one identifier the source lacks, so it is sampled per row from
// storeKeys.
func BuildSalesFromSource(
	gen *synth.Generator,
	src *records.Table,
	dim *timedim.Dimension,
	storeKeys []any,
	opts SourceOptions,
) (*records.Table, error) {
	if err := requireKeys(schema.FactSales.Name, "store", len(storeKeys)); err != nil {
		return nil, err
	}
	if opts.DateColumn == "" {
		opts.DateColumn = "order_date"
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = []string{timedim.DateLayout}
	}

	idx := make(map[string]int, len(salesSourceColumns)+1)
	for _, col := range append(append([]string{}, salesSourceColumns...), opts.DateColumn) {
		i := src.ColumnIndex(col)
		if i < 0 {
			return nil, fmt.Errorf("%s: source %s lacks column %q", schema.FactSales.Name, src.Name, col)
		}
		idx[col] = i
	}

	table := records.NewTable(schema.FactSales.Name, schema.FactSales.ColumnNames()...)
	for line, row := range src.Rows {
		date, err := parseDate(row[idx[opts.DateColumn]], opts.DateLayouts)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", schema.FactSales.Name, line+1, err)
		}
		timeID, ok := dim.TimeIDFor(date)
		if !ok {
			return nil, &JoinResolutionError{Table: schema.FactSales.Name, Date: date.Format(timedim.DateLayout)}
		}
		qty, err := parseInt(row[idx["quantity_sold"]])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: quantity_sold: %w", schema.FactSales.Name, line+1, err)
		}
		amount, err := parseAmount(row[idx["total_sale_amount"]])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: total_sale_amount: %w", schema.FactSales.Name, line+1, err)
		}
		table.Rows = append(table.Rows, []any{
			row[idx["sale_id"]],
			row[idx["product_id"]],
			storeKeys[gen.Choice(len(storeKeys))], // per row, never once per batch
			row[idx["customer_id"]],
			timeID,
			qty,
			amount,
		})
	}
	return table, nil
}

func parseDate(v any, layouts []string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
	}
}

func parseInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("unparseable integer %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported integer value %v (%T)", v, v)
	}
}

func parseAmount(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return math.Round(t*100) / 100, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable amount %q", t)
		}
		return math.Round(f*100) / 100, nil
	default:
		return 0, fmt.Errorf("unsupported amount value %v (%T)", v, v)
	}
}
