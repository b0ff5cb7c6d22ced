// Package schema declares the star-schema table definitions persisted by the
// warehouse: four dimension tables and two fact tables. The definitions are
// database-agnostic; each storage backend renders its own DDL from them.
//
// The model is deliberately static. The warehouse schema is a fixed contract
// (append-only, no migrations), so nothing here is inferred from data.
package schema

// TypeClass is a database-agnostic column type. Backends map each class to a
// dialect-specific SQL type at DDL render time.
type TypeClass string

const (
	TypeInt  TypeClass = "int"
	TypeText TypeClass = "text"
	TypeReal TypeClass = "real"
	TypeDate TypeClass = "date"
	TypeBool TypeClass = "bool"
)

// Column describes a single column in a table definition.
type Column struct {
	Name       string
	Type       TypeClass
	Nullable   bool
	PrimaryKey bool
}

// Table holds a table name, its ordered columns, and the natural key used
// for deduplication before load. Facts load after all dimensions.
type Table struct {
	Name       string
	Columns    []Column
	NaturalKey []string
	Fact       bool
}

// ColumnNames returns the ordered column names, the order used for inserts.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var DimCustomer = Table{
	Name: "dim_customer",
	Columns: []Column{
		{Name: "customer_id", Type: TypeText, PrimaryKey: true},
		{Name: "customer_name", Type: TypeText},
		{Name: "customer_address", Type: TypeText},
		{Name: "customer_email", Type: TypeText},
		{Name: "customer_phone", Type: TypeText},
	},
	NaturalKey: []string{"customer_id"},
}

var DimProduct = Table{
	Name: "dim_product",
	Columns: []Column{
		{Name: "product_id", Type: TypeText, PrimaryKey: true},
		{Name: "product_name", Type: TypeText},
		{Name: "product_category", Type: TypeText},
		{Name: "product_subcategory", Type: TypeText},
		{Name: "product_price", Type: TypeReal},
		{Name: "product_description", Type: TypeText},
	},
	NaturalKey: []string{"product_id"},
}

var DimStore = Table{
	Name: "dim_store",
	Columns: []Column{
		{Name: "store_id", Type: TypeInt, PrimaryKey: true},
		{Name: "store_name", Type: TypeText},
		{Name: "store_location", Type: TypeText},
	},
	NaturalKey: []string{"store_id"},
}

var DimTime = Table{
	Name: "dim_time",
	Columns: []Column{
		{Name: "time_id", Type: TypeInt, PrimaryKey: true},
		{Name: "date", Type: TypeDate},
		{Name: "year", Type: TypeInt},
		{Name: "quarter", Type: TypeInt},
		{Name: "month", Type: TypeInt},
		{Name: "day", Type: TypeInt},
		{Name: "day_of_week", Type: TypeInt},
		{Name: "day_name", Type: TypeText},
		{Name: "is_weekend", Type: TypeBool},
	},
	NaturalKey: []string{"time_id"},
}

var FactSales = Table{
	Name: "fact_sales",
	Columns: []Column{
		{Name: "sale_id", Type: TypeText, PrimaryKey: true},
		{Name: "product_id", Type: TypeText},
		{Name: "store_id", Type: TypeInt},
		{Name: "customer_id", Type: TypeText},
		{Name: "time_id", Type: TypeInt},
		{Name: "quantity_sold", Type: TypeInt},
		{Name: "total_sale_amount", Type: TypeReal},
	},
	NaturalKey: []string{"sale_id"},
	Fact:       true,
}

var FactInventory = Table{
	Name: "fact_inventory",
	Columns: []Column{
		{Name: "inventory_id", Type: TypeText, PrimaryKey: true},
		{Name: "product_id", Type: TypeText},
		{Name: "store_id", Type: TypeInt},
		{Name: "stock_level", Type: TypeInt},
		{Name: "last_updated", Type: TypeDate},
	},
	NaturalKey: []string{"inventory_id"},
	Fact:       true,
}

// LoadOrder lists all warehouse tables in load-dependency order: every
// dimension precedes every fact that references it.
func LoadOrder() []Table {
	return []Table{DimCustomer, DimProduct, DimStore, DimTime, FactSales, FactInventory}
}

// ByName looks a table definition up by its persisted name.
func ByName(name string) (Table, bool) {
	for _, t := range LoadOrder() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
