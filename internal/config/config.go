// Package config defines the canonical, JSON-serializable configuration model
// for a warehouse build. It is intentionally small and explicit so that job
// files can be loaded from disk and passed through the program without
// additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in job files
//     under configs/*.json.
//  3. Minimalism: Decoding is performed by the standard library; defaults are
//     applied explicitly in ApplyDefaults rather than hidden in decode hooks.
//
// Example (trimmed):
//
//	{
//	  "job":    "nightly-superstore",
//	  "source": { "kind": "csv", "csv": { "dir": "data/superstore", "fold_headers": true } },
//	  "seed":   42,
//	  "storage": { "kind": "postgres", "db": { "dsn": "postgresql://...", "auto_create_tables": true } },
//	  "runtime": { "batch_size": 1000, "concurrent_dimensions": true }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
)

// Job describes one full warehouse build. It is the top-level object decoded
// from a job file.
type Job struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source selects where dimension and fact inputs come from.
	Source Source `json:"source"`

	// Synthetic sizes the generated data set. Ignored for csv sources except
	// for the store dimension, which is always synthesized.
	Synthetic Synthetic `json:"synthetic"`

	// Seed fixes the random number generator so repeated runs produce the
	// same synthetic rows and the same store assignments. Zero means seed
	// from the clock.
	Seed int64 `json:"seed"`

	// Storage describes where the star schema is written.
	Storage Storage `json:"storage"`

	// Runtime controls batching and concurrency.
	Runtime Runtime `json:"runtime"`
}

// Source identifies the data source for customers, products, and sales.
type Source struct {
	// Kind selects the source implementation: "synthetic" or "csv".
	Kind string `json:"kind"`

	// CSV carries options for the "csv" source kind.
	CSV SourceCSVOptions `json:"csv"`
}

// SourceCSVOptions holds configuration for the "csv" source kind.
type SourceCSVOptions struct {
	// Dir is the directory whose *.csv files are concatenated, in name order.
	Dir string `json:"dir"`

	// Comma is the field delimiter; empty means ",".
	Comma string `json:"comma"`

	// DateColumn names the source column carrying the transaction date.
	// Empty means "order_date".
	DateColumn string `json:"date_column"`

	// DateLayouts are Go time layouts tried in order when parsing the date
	// column. Empty means the canonical "2006-01-02".
	DateLayouts []string `json:"date_layouts"`

	// FoldHeaders lowercases headers, strips diacritics, and converts
	// separators to underscores before matching column names.
	FoldHeaders bool `json:"fold_headers"`

	// HeaderMap renames raw headers (after trimming) to canonical column
	// names, applied before folding.
	HeaderMap map[string]string `json:"header_map"`
}

// Synthetic sizes the generated data set and its date range.
type Synthetic struct {
	Customers int `json:"customers"`
	Products  int `json:"products"`
	Stores    int `json:"stores"`
	Sales     int `json:"sales"`
	Inventory int `json:"inventory"`

	// StartDate and EndDate bound the time dimension, inclusive, in
	// "2006-01-02" form.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Storage selects the sink used to persist the star schema.
type Storage struct {
	// Kind selects the storage backend: "postgres", "mysql", "sqlite",
	// or "mssql".
	Kind string `json:"kind"`

	// DB configures the selected backend.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string. The WAREHOUSE_DSN environment
	// variable, when set, takes precedence.
	DSN string `json:"dsn"`

	// AutoCreateTables creates the six warehouse tables before loading.
	AutoCreateTables bool `json:"auto_create_tables"`
}

// Runtime controls batching and concurrency.
type Runtime struct {
	// BatchSize is the number of rows per insert batch.
	BatchSize int `json:"batch_size"`

	// ChunkTimeoutMS bounds each insert batch; zero disables the deadline.
	ChunkTimeoutMS int `json:"chunk_timeout_ms"`

	// ConcurrentDimensions builds the customer, product, and store
	// dimensions in parallel.
	ConcurrentDimensions bool `json:"concurrent_dimensions"`
}

// Defaults mirroring the classic warehouse demo data set.
const (
	DefaultCustomers = 100
	DefaultProducts  = 50
	DefaultStores    = 10
	DefaultSales     = 500
	DefaultInventory = 100

	DefaultStartDate = "2020-01-01"
	DefaultEndDate   = "2022-12-31"

	DefaultBatchSize = 1000
)

// ApplyDefaults fills zero-valued fields with the standard defaults. It is
// idempotent and never overwrites explicit settings.
func (j *Job) ApplyDefaults() {
	if j.Source.Kind == "" {
		j.Source.Kind = SourceSynthetic
	}
	if j.Source.CSV.Comma == "" {
		j.Source.CSV.Comma = ","
	}
	if j.Source.CSV.DateColumn == "" {
		j.Source.CSV.DateColumn = "order_date"
	}
	if len(j.Source.CSV.DateLayouts) == 0 {
		j.Source.CSV.DateLayouts = []string{"2006-01-02"}
	}

	if j.Synthetic.Customers == 0 {
		j.Synthetic.Customers = DefaultCustomers
	}
	if j.Synthetic.Products == 0 {
		j.Synthetic.Products = DefaultProducts
	}
	if j.Synthetic.Stores == 0 {
		j.Synthetic.Stores = DefaultStores
	}
	if j.Synthetic.Sales == 0 {
		j.Synthetic.Sales = DefaultSales
	}
	if j.Synthetic.Inventory == 0 {
		j.Synthetic.Inventory = DefaultInventory
	}
	if j.Synthetic.StartDate == "" {
		j.Synthetic.StartDate = DefaultStartDate
	}
	if j.Synthetic.EndDate == "" {
		j.Synthetic.EndDate = DefaultEndDate
	}

	if j.Runtime.BatchSize == 0 {
		j.Runtime.BatchSize = DefaultBatchSize
	}
}

// Load reads and decodes a job file and applies defaults. Validation is a
// separate step (see Validate) so callers can lint without loading defaults
// twice.
func Load(path string) (Job, error) {
	var j Job
	b, err := os.ReadFile(path)
	if err != nil {
		return j, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &j); err != nil {
		return j, fmt.Errorf("config: decode %s: %w", path, err)
	}
	j.ApplyDefaults()
	return j, nil
}
