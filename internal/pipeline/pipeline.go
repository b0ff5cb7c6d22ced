// Package pipeline orchestrates a full warehouse build: sourcing (synthetic
// or CSV), dimension and fact construction, natural-key dedup, and
// dependency-ordered loading into the configured storage backend.
//
// Build-time errors (key exhaustion, schema mismatch, join failure) abort
// the run immediately because downstream stages depend on complete inputs.
// Load-time errors are isolated per table: a failed write is recorded in the
// run report and the remaining tables still load.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"warehouse/internal/config"
	"warehouse/internal/dedup"
	"warehouse/internal/dimension"
	"warehouse/internal/extract"
	"warehouse/internal/fact"
	"warehouse/internal/metrics"
	"warehouse/internal/records"
	"warehouse/internal/schema"
	"warehouse/internal/storage"
	"warehouse/internal/synth"
	"warehouse/internal/timedim"
)

// LoadError reports a table-level write failure at the storage boundary.
type LoadError struct {
	Table string
	Rows  int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %d rows attempted: %v", e.Table, e.Rows, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TableReport is the per-table outcome of one run.
type TableReport struct {
	Table      string
	Built      int
	Duplicates int
	Loaded     int64
	Err        error
}

// Report is the outcome of one full run, tables in load order.
type Report struct {
	Job    string
	RunID  string
	Tables []TableReport
}

// Failed reports whether any table failed to load.
func (r *Report) Failed() bool {
	for _, t := range r.Tables {
		if t.Err != nil {
			return true
		}
	}
	return false
}

// Table returns the report entry for the named table, or nil.
func (r *Report) Table(name string) *TableReport {
	for i := range r.Tables {
		if r.Tables[i].Table == name {
			return &r.Tables[i]
		}
	}
	return nil
}

// Pipeline is one configured warehouse build. A Pipeline is single-use: its
// random stream advances as it runs.
type Pipeline struct {
	job   config.Job
	repo  storage.Repository
	runID string
	seed  int64
	root  *rand.Rand
}

// New prepares a run against an already-open repository. A zero configured
// seed is replaced with the clock so unrelated runs do not repeat data.
func New(job config.Job, repo storage.Repository) *Pipeline {
	seed := job.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Pipeline{
		job:   job,
		repo:  repo,
		runID: uuid.NewString(),
		seed:  seed,
		root:  rand.New(rand.NewSource(seed)),
	}
}

// RunID identifies this run in logs and reports.
func (p *Pipeline) RunID() string { return p.runID }

// childGen derives an independently seeded generator from the root stream.
// Generators are drawn in a fixed order before any goroutine starts, so a
// concurrent dimension build produces the same tables as a sequential one.
func (p *Pipeline) childGen() *synth.Generator {
	return synth.New(rand.New(rand.NewSource(p.root.Int63())))
}

// Run executes the full build and returns the per-table report. A non-nil
// error means the run aborted before loading; per-table load failures are
// reported through Report.Failed instead.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	log.Printf("run %s: job=%s source=%s storage=%s seed=%d",
		p.runID, p.job.Job, p.job.Source.Kind, p.job.Storage.Kind, p.seed)

	tables, err := p.build(ctx)
	if err != nil {
		return nil, err
	}

	if p.job.Storage.DB.AutoCreateTables {
		start := time.Now()
		err := storage.EnsureSchema(ctx, p.job.Storage.Kind, p.repo)
		metrics.RecordStep(p.job.Job, "ensure_schema", err, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	rep := &Report{Job: p.job.Job, RunID: p.runID}
	for _, def := range schema.LoadOrder() {
		rep.Tables = append(rep.Tables, p.loadTable(ctx, def, tables[def.Name]))
	}
	return rep, nil
}

// loadTable dedupes one built table by its natural key and appends it in
// batches. Failures are captured in the report entry, never propagated.
func (p *Pipeline) loadTable(ctx context.Context, def schema.Table, t *records.Table) TableReport {
	tr := TableReport{Table: def.Name}
	if t == nil || t.Len() == 0 {
		log.Printf("run %s: %s: empty input table, nothing to load", p.runID, def.Name)
		return tr
	}
	tr.Built = t.Len()

	start := time.Now()
	deduped, dropped, err := dedup.Dedupe(t, def.NaturalKey)
	if err != nil {
		tr.Err = &LoadError{Table: def.Name, Rows: tr.Built, Err: err}
		metrics.RecordStep(p.job.Job, "load:"+def.Name, tr.Err, time.Since(start))
		log.Printf("run %s: %v", p.runID, tr.Err)
		return tr
	}
	tr.Duplicates = dropped
	if dropped > 0 {
		log.Printf("run %s: %s: dropped %d duplicate rows by %v", p.runID, def.Name, dropped, def.NaturalKey)
		metrics.RecordRows(p.job.Job, def.Name, "deduped", int64(dropped))
	}

	batchSize := p.job.Runtime.BatchSize
	chunkTimeout := time.Duration(p.job.Runtime.ChunkTimeoutMS) * time.Millisecond
	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		return p.repo.InsertRows(ctx, def.Name, columns, rows)
	}
	loaded, err := storage.LoadBatches(ctx, deduped.Columns, deduped.Rows, batchSize, chunkTimeout, copyFn)
	tr.Loaded = loaded
	if err != nil {
		tr.Err = &LoadError{Table: def.Name, Rows: deduped.Len(), Err: err}
		metrics.RecordStep(p.job.Job, "load:"+def.Name, tr.Err, time.Since(start))
		log.Printf("run %s: %v", p.runID, tr.Err)
		return tr
	}

	metrics.RecordStep(p.job.Job, "load:"+def.Name, nil, time.Since(start))
	metrics.RecordRows(p.job.Job, def.Name, "loaded", loaded)
	metrics.RecordBatches(p.job.Job, int64((deduped.Len()+batchSize-1)/batchSize))
	log.Printf("run %s: %s: loaded %d rows (%d built, %d duplicates)",
		p.runID, def.Name, loaded, tr.Built, dropped)
	return tr
}

func (p *Pipeline) build(ctx context.Context) (map[string]*records.Table, error) {
	switch p.job.Source.Kind {
	case config.SourceCSV:
		return p.buildFromCSV(ctx)
	default:
		return p.buildSynthetic(ctx)
	}
}

// stepDim runs one dimension build under step metrics.
func (p *Pipeline) stepDim(step string, fn func() (*dimension.Result, error)) (*dimension.Result, error) {
	start := time.Now()
	res, err := fn()
	metrics.RecordStep(p.job.Job, step, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(p.job.Job, step, "built", int64(res.Table.Len()))
	log.Printf("run %s: built %s: %d rows", p.runID, step, res.Table.Len())
	return res, nil
}

// stepTable runs one table-producing build stage under step metrics.
func (p *Pipeline) stepTable(step string, fn func() (*records.Table, error)) (*records.Table, error) {
	start := time.Now()
	t, err := fn()
	metrics.RecordStep(p.job.Job, step, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(p.job.Job, step, "built", int64(t.Len()))
	log.Printf("run %s: built %s: %d rows", p.runID, step, t.Len())
	return t, nil
}

// stepTime runs a time-dimension build under step metrics.
func (p *Pipeline) stepTime(fn func() (*timedim.Dimension, error)) (*timedim.Dimension, error) {
	start := time.Now()
	d, err := fn()
	metrics.RecordStep(p.job.Job, "dim_time", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(p.job.Job, "dim_time", "built", int64(d.Table.Len()))
	log.Printf("run %s: built dim_time: %d rows", p.runID, d.Table.Len())
	return d, nil
}

// runDimBuilds executes the three independent dimension builds, in parallel
// when configured. The caller draws every generator before this runs.
func (p *Pipeline) runDimBuilds(builds []func() error) error {
	if p.job.Runtime.ConcurrentDimensions {
		var g errgroup.Group
		for _, b := range builds {
			g.Go(b)
		}
		return g.Wait()
	}
	for _, b := range builds {
		if err := b(); err != nil {
			return err
		}
	}
	return nil
}

// buildSynthetic assembles the full star schema from generated data.
func (p *Pipeline) buildSynthetic(ctx context.Context) (map[string]*records.Table, error) {
	syn := p.job.Synthetic

	start, err := time.Parse(timedim.DateLayout, syn.StartDate)
	if err != nil {
		return nil, fmt.Errorf("synthetic start_date: %w", err)
	}
	end, err := time.Parse(timedim.DateLayout, syn.EndDate)
	if err != nil {
		return nil, fmt.Errorf("synthetic end_date: %w", err)
	}

	tdim, err := p.stepTime(func() (*timedim.Dimension, error) {
		return timedim.BuildRange(start, end)
	})
	if err != nil {
		return nil, err
	}

	// Fixed draw order keeps the run reproducible regardless of the
	// concurrency setting.
	custGen, prodGen, storeGen := p.childGen(), p.childGen(), p.childGen()

	var customers, products, stores *dimension.Result
	err = p.runDimBuilds([]func() error{
		func() (err error) {
			customers, err = p.stepDim("dim_customer", func() (*dimension.Result, error) {
				return dimension.BuildSyntheticCustomers(custGen, syn.Customers)
			})
			return err
		},
		func() (err error) {
			products, err = p.stepDim("dim_product", func() (*dimension.Result, error) {
				return dimension.BuildSyntheticProducts(prodGen, syn.Products)
			})
			return err
		},
		func() (err error) {
			stores, err = p.stepDim("dim_store", func() (*dimension.Result, error) {
				return dimension.BuildSyntheticStores(storeGen, syn.Stores)
			})
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Barrier: every key set above is complete before any fact build starts.
	factGen := p.childGen()
	keys := fact.KeySets{
		Customers: customers.Keys,
		Products:  products.Keys,
		Stores:    stores.Keys,
		TimeIDs:   tdim.TimeIDs,
	}
	sales, err := p.stepTable("fact_sales", func() (*records.Table, error) {
		return fact.BuildSampledSales(factGen, syn.Sales, keys)
	})
	if err != nil {
		return nil, err
	}
	inventory, err := p.stepTable("fact_inventory", func() (*records.Table, error) {
		return fact.BuildSampledInventory(factGen, syn.Inventory, keys, end.Year())
	})
	if err != nil {
		return nil, err
	}

	return map[string]*records.Table{
		schema.DimCustomer.Name:   customers.Table,
		schema.DimProduct.Name:    products.Table,
		schema.DimStore.Name:      stores.Table,
		schema.DimTime.Name:       tdim.Table,
		schema.FactSales.Name:     sales,
		schema.FactInventory.Name: inventory,
	}, nil
}

// buildFromCSV assembles the star schema from a directory of source files.
// The store dimension is always synthesized; the source carries no store
// identity, so sales rows get a store sampled per row.
func (p *Pipeline) buildFromCSV(ctx context.Context) (map[string]*records.Table, error) {
	csv := p.job.Source.CSV
	var comma rune
	if csv.Comma != "" {
		comma = []rune(csv.Comma)[0]
	}

	src, err := p.stepTable("extract", func() (*records.Table, error) {
		return extract.Directory(ctx, extract.Options{
			Dir:         csv.Dir,
			Comma:       comma,
			HeaderMap:   csv.HeaderMap,
			FoldHeaders: csv.FoldHeaders,
		})
	})
	if err != nil {
		return nil, err
	}

	custGen, prodGen, storeGen := p.childGen(), p.childGen(), p.childGen()

	var customers, products, stores *dimension.Result
	err = p.runDimBuilds([]func() error{
		func() (err error) {
			customers, err = p.stepDim("dim_customer", func() (*dimension.Result, error) {
				return dimension.BuildCustomersFromSource(custGen, src)
			})
			return err
		},
		func() (err error) {
			products, err = p.stepDim("dim_product", func() (*dimension.Result, error) {
				return dimension.BuildProductsFromSource(prodGen, src)
			})
			return err
		},
		func() (err error) {
			stores, err = p.stepDim("dim_store", func() (*dimension.Result, error) {
				return dimension.BuildSequentialStores(storeGen, p.job.Synthetic.Stores)
			})
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	dates, err := p.sourceDates(src)
	if err != nil {
		return nil, err
	}
	tdim, err := p.stepTime(func() (*timedim.Dimension, error) {
		return timedim.BuildDerived(dates)
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	factGen := p.childGen()
	sales, err := p.stepTable("fact_sales", func() (*records.Table, error) {
		return fact.BuildSalesFromSource(factGen, src, tdim, stores.Keys, fact.SourceOptions{
			DateColumn:  csv.DateColumn,
			DateLayouts: csv.DateLayouts,
		})
	})
	if err != nil {
		return nil, err
	}

	// The source has no inventory grain; sample stock against the extracted
	// product keys, dated within the last covered year.
	keys := fact.KeySets{Products: products.Keys, Stores: stores.Keys}
	year := tdim.TimeIDs[len(tdim.TimeIDs)-1] / 10000
	inventory, err := p.stepTable("fact_inventory", func() (*records.Table, error) {
		return fact.BuildSampledInventory(factGen, p.job.Synthetic.Inventory, keys, year)
	})
	if err != nil {
		return nil, err
	}

	return map[string]*records.Table{
		schema.DimCustomer.Name:   customers.Table,
		schema.DimProduct.Name:    products.Table,
		schema.DimStore.Name:      stores.Table,
		schema.DimTime.Name:       tdim.Table,
		schema.FactSales.Name:     sales,
		schema.FactInventory.Name: inventory,
	}, nil
}

// sourceDates parses the configured date column of every source row.
// Unset options fall back to the same defaults the sales build uses, so a
// Job constructed without ApplyDefaults still parses rather than silently
// yielding zero times.
func (p *Pipeline) sourceDates(src *records.Table) ([]time.Time, error) {
	csv := p.job.Source.CSV
	if csv.DateColumn == "" {
		csv.DateColumn = "order_date"
	}
	if len(csv.DateLayouts) == 0 {
		csv.DateLayouts = []string{timedim.DateLayout}
	}
	col, err := src.Column(csv.DateColumn)
	if err != nil {
		return nil, fmt.Errorf("dim_time: %w", err)
	}
	dates := make([]time.Time, 0, len(col))
	for i, v := range col {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("dim_time: row %d: %s is not a string", i+1, csv.DateColumn)
		}
		var parsed time.Time
		var parseErr error
		for _, layout := range csv.DateLayouts {
			if parsed, parseErr = time.Parse(layout, s); parseErr == nil {
				break
			}
		}
		if parseErr != nil {
			return nil, fmt.Errorf("dim_time: row %d: unparsable date %q", i+1, s)
		}
		dates = append(dates, parsed)
	}
	return dates, nil
}
