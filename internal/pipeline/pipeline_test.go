package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"warehouse/internal/config"
	"warehouse/internal/schema"
	"warehouse/internal/storage"
)

// fakeRepo records inserts per table and can be told to fail specific tables.
type fakeRepo struct {
	mu       sync.Mutex
	inserted map[string][][]any
	order    []string
	fail     map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{inserted: map[string][][]any{}, fail: map[string]error{}}
}

func (f *fakeRepo) InsertRows(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[table]; err != nil {
		return 0, err
	}
	if _, seen := f.inserted[table]; !seen {
		f.order = append(f.order, table)
	}
	f.inserted[table] = append(f.inserted[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(context.Context, string) error { return nil }
func (f *fakeRepo) Close() error                       { return nil }

func (f *fakeRepo) rows(table string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserted[table]
}

func syntheticJob() config.Job {
	return config.Job{
		Job:    "test",
		Source: config.Source{Kind: config.SourceSynthetic},
		Synthetic: config.Synthetic{
			Customers: 5, Products: 4, Stores: 3, Sales: 20, Inventory: 6,
			StartDate: "2020-01-01", EndDate: "2020-01-10",
		},
		Seed:    1,
		Storage: config.Storage{Kind: "fake", DB: config.DBConfig{DSN: "x"}},
		Runtime: config.Runtime{BatchSize: 7},
	}
}

func TestRunSyntheticLoadsAllTables(t *testing.T) {
	repo := newFakeRepo()
	rep, err := New(syntheticJob(), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Failed() {
		t.Fatalf("unexpected failure: %+v", rep.Tables)
	}

	wantRows := map[string]int{
		"dim_customer":   5,
		"dim_product":    4,
		"dim_store":      3,
		"dim_time":       10,
		"fact_sales":     20,
		"fact_inventory": 6,
	}
	if len(rep.Tables) != len(wantRows) {
		t.Fatalf("report has %d tables, want %d", len(rep.Tables), len(wantRows))
	}
	for name, want := range wantRows {
		tr := rep.Table(name)
		if tr == nil {
			t.Fatalf("no report entry for %s", name)
		}
		if tr.Loaded != int64(want) {
			t.Errorf("%s: loaded %d, want %d", name, tr.Loaded, want)
		}
		if got := len(repo.rows(name)); got != want {
			t.Errorf("%s: repo received %d rows, want %d", name, got, want)
		}
	}

	// Dependency order: every dimension is first written before any fact.
	factSeen := false
	for _, table := range repo.order {
		def, ok := schema.ByName(table)
		if !ok {
			t.Fatalf("unexpected table %q", table)
		}
		if def.Fact {
			factSeen = true
		} else if factSeen {
			t.Fatalf("dimension %s written after a fact: %v", table, repo.order)
		}
	}
}

func TestRunLoadFailureIsolatedPerTable(t *testing.T) {
	repo := newFakeRepo()
	boom := errors.New("connection reset")
	repo.fail["dim_store"] = boom

	rep, err := New(syntheticJob(), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Failed() {
		t.Fatal("expected report to record the dim_store failure")
	}

	tr := rep.Table("dim_store")
	var lerr *LoadError
	if !errors.As(tr.Err, &lerr) {
		t.Fatalf("dim_store err = %v, want *LoadError", tr.Err)
	}
	if lerr.Table != "dim_store" || lerr.Rows != 3 {
		t.Errorf("LoadError = %+v, want table dim_store, 3 rows", lerr)
	}
	if !errors.Is(tr.Err, boom) {
		t.Errorf("LoadError does not wrap the cause: %v", tr.Err)
	}

	// Every other table still loaded.
	for _, name := range []string{"dim_customer", "dim_product", "dim_time", "fact_sales", "fact_inventory"} {
		if other := rep.Table(name); other.Err != nil {
			t.Errorf("%s: unexpected error %v", name, other.Err)
		}
	}
	if got := len(repo.rows("fact_sales")); got != 20 {
		t.Errorf("fact_sales: repo received %d rows, want 20", got)
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	a, b := newFakeRepo(), newFakeRepo()
	if _, err := New(syntheticJob(), a).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := New(syntheticJob(), b).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"dim_customer", "dim_product", "dim_store", "fact_sales"} {
		if !reflect.DeepEqual(a.rows(table), b.rows(table)) {
			t.Errorf("%s differs between equal-seed runs", table)
		}
	}
}

func TestRunConcurrentDimensionsMatchSequential(t *testing.T) {
	seq, conc := newFakeRepo(), newFakeRepo()

	job := syntheticJob()
	if _, err := New(job, seq).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	job.Runtime.ConcurrentDimensions = true
	if _, err := New(job, conc).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"dim_customer", "dim_product", "dim_store", "fact_sales", "fact_inventory"} {
		if !reflect.DeepEqual(seq.rows(table), conc.rows(table)) {
			t.Errorf("%s differs between sequential and concurrent builds", table)
		}
	}
}

func TestRunEmptyTableIsNoOp(t *testing.T) {
	job := syntheticJob()
	job.Synthetic.Sales = 0

	repo := newFakeRepo()
	rep, err := New(job, repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr := rep.Table("fact_sales")
	if tr.Err != nil || tr.Built != 0 || tr.Loaded != 0 {
		t.Errorf("fact_sales report = %+v, want empty no-op", tr)
	}
	if rows := repo.rows("fact_sales"); len(rows) != 0 {
		t.Errorf("fact_sales: repo received %d rows, want none", len(rows))
	}
}

func TestRunKeyExhaustionAbortsBeforeLoad(t *testing.T) {
	job := syntheticJob()
	job.Synthetic.Stores = 101 // store scope only has 100 keys

	repo := newFakeRepo()
	if _, err := New(job, repo).Run(context.Background()); err == nil {
		t.Fatal("expected run to abort on key exhaustion")
	}
	for table := range repo.inserted {
		t.Errorf("table %s was loaded despite the aborted build", table)
	}
}

func TestRunAutoCreateTables(t *testing.T) {
	var bootstrapped []string
	storage.RegisterDDL("fake", func(_ context.Context, _ storage.Repository, tables []schema.Table) error {
		for _, tb := range tables {
			bootstrapped = append(bootstrapped, tb.Name)
		}
		return nil
	})

	job := syntheticJob()
	job.Storage.DB.AutoCreateTables = true
	if _, err := New(job, newFakeRepo()).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bootstrapped) != len(schema.LoadOrder()) {
		t.Fatalf("bootstrapped %v, want all %d tables", bootstrapped, len(schema.LoadOrder()))
	}
}

func csvJob(dir string) config.Job {
	j := config.Job{
		Job: "test-csv",
		Source: config.Source{
			Kind: config.SourceCSV,
			CSV: config.SourceCSVOptions{
				Dir:         dir,
				DateColumn:  "order_date",
				DateLayouts: []string{"2006-01-02"},
			},
		},
		Synthetic: config.Synthetic{Stores: 2, Inventory: 4},
		Seed:      7,
		Storage:   config.Storage{Kind: "fake", DB: config.DBConfig{DSN: "x"}},
		Runtime:   config.Runtime{BatchSize: 100},
	}
	return j
}

const csvHeader = "sale_id,customer_id,customer_name,product_id,product_name,product_category,product_subcategory,quantity_sold,total_sale_amount,order_date\n"

func TestRunCSVSource(t *testing.T) {
	dir := t.TempDir()
	body := csvHeader +
		"S1,C1,Ada,P1,Widget,Tools,Hand,2,19.90,2020-01-02\n" +
		"S2,C2,Grace,P2,Gadget,Tools,Power,1,5.00,2020-01-02\n" +
		"S3,C1,Ada,P1,Widget,Tools,Hand,4,39.80,2020-01-05\n"
	if err := os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := newFakeRepo()
	rep, err := New(csvJob(dir), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Failed() {
		t.Fatalf("unexpected failure: %+v", rep.Tables)
	}

	// Natural keys dedupe: two distinct customers and products survive.
	if got := len(repo.rows("dim_customer")); got != 2 {
		t.Errorf("dim_customer: %d rows, want 2", got)
	}
	if got := len(repo.rows("dim_product")); got != 2 {
		t.Errorf("dim_product: %d rows, want 2", got)
	}
	// Derived time dimension: two distinct order dates, no densification.
	if got := len(repo.rows("dim_time")); got != 2 {
		t.Errorf("dim_time: %d rows, want 2", got)
	}
	if got := len(repo.rows("fact_sales")); got != 3 {
		t.Errorf("fact_sales: %d rows, want 3", got)
	}

	// time_id resolved by exact join against the derived dimension.
	sales := repo.rows("fact_sales")
	timeIdx := -1
	for i, col := range schema.FactSales.ColumnNames() {
		if col == "time_id" {
			timeIdx = i
		}
	}
	want := map[any]int{20200102: 2, 20200105: 1}
	got := map[any]int{}
	for _, row := range sales {
		got[row[timeIdx]]++
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fact_sales time_id distribution = %v, want %v", got, want)
	}
}

func TestRunCSVDefaultsDateOptions(t *testing.T) {
	dir := t.TempDir()
	body := csvHeader +
		"S1,C1,Ada,P1,Widget,Tools,Hand,2,19.90,2020-01-02\n" +
		"S2,C2,Grace,P2,Gadget,Tools,Power,1,5.00,2020-01-05\n"
	if err := os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	// A Job built by hand, without ApplyDefaults, leaves the date options
	// empty. Parsing still resolves real dates instead of zero times.
	j := csvJob(dir)
	j.Source.CSV.DateColumn = ""
	j.Source.CSV.DateLayouts = nil

	repo := newFakeRepo()
	rep, err := New(j, repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Failed() {
		t.Fatalf("unexpected failure: %+v", rep.Tables)
	}
	if got := len(repo.rows("dim_time")); got != 2 {
		t.Errorf("dim_time: %d rows, want 2", got)
	}
	for _, row := range repo.rows("dim_time") {
		if id, ok := row[0].(int); !ok || id < 10000101 {
			t.Errorf("dim_time row has unparsed time_id %v", row[0])
		}
	}
}

func TestRunCSVUnparsableDateAborts(t *testing.T) {
	dir := t.TempDir()
	body := csvHeader + "S1,C1,Ada,P1,Widget,Tools,Hand,2,19.90,not-a-date\n"
	if err := os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := newFakeRepo()
	if _, err := New(csvJob(dir), repo).Run(context.Background()); err == nil {
		t.Fatal("expected run to abort on unparsable source date")
	}
	for table := range repo.inserted {
		t.Errorf("table %s was loaded despite the aborted build", table)
	}
}
