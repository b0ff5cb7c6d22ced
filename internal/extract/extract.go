// Package extract reads a directory of flat CSV exports and concatenates
// them into one in-memory table before dimension and fact construction.
//
// All files in the directory must share one column schema; a header that
// disagrees with the first file is a configuration error surfaced as
// *SchemaMismatchError before any build starts. Per-row problems (wrong
// width) are soft: the row is skipped and counted, mirroring the fail-soft
// reader semantics used elsewhere in the pipeline.
package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"warehouse/internal/records"
)

// Options configures directory extraction. Zero values get defaults.
type Options struct {
	// Dir is the directory whose *.csv files are concatenated.
	Dir string

	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// HeaderMap maps a source header (post-trim, pre-fold) to its canonical
	// column name, e.g. "Customer ID" -> "customer_id".
	HeaderMap map[string]string

	// FoldHeaders lowercases headers, strips diacritics, and rewrites
	// non-alphanumeric runs to underscores for headers not covered by
	// HeaderMap.
	FoldHeaders bool
}

// SchemaMismatchError reports a file whose header disagrees with the schema
// established by the first file in the directory.
type SchemaMismatchError struct {
	File string
	Got  []string
	Want []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("extract: %s: header %v does not match schema %v", e.File, e.Got, e.Want)
}

// foldTransformer strips diacritics: decompose, drop combining marks,
// recompose.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldHeader(h string) string {
	folded, _, err := transform.String(foldTransformer, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(folded)
	var b strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

const utf8BOM = "\uFEFF"

func (o Options) canonical(raw string) string {
	h := strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM))
	if mapped, ok := o.HeaderMap[h]; ok && mapped != "" {
		return mapped
	}
	if o.FoldHeaders {
		return foldHeader(h)
	}
	return h
}

// Directory reads every *.csv file under opts.Dir (sorted by name) and
// returns one concatenated table of string values. The table name is the
// directory base name.
func Directory(ctx context.Context, opts Options) (*records.Table, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("extract: source directory required")
	}
	paths, err := filepath.Glob(filepath.Join(opts.Dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("extract: list %s: %w", opts.Dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("extract: no .csv files in %s", opts.Dir)
	}
	sort.Strings(paths)

	var table *records.Table
	skipped := 0
	for _, path := range paths {
		if err := readFile(ctx, path, opts, &table, &skipped); err != nil {
			return nil, err
		}
	}
	if skipped > 0 {
		log.Printf("extract: skipped %d malformed rows across %d files", skipped, len(paths))
	}
	table.Name = filepath.Base(opts.Dir)
	return table, nil
}

func readFile(ctx context.Context, path string, opts Options, table **records.Table, skipped *int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rawHeader, err := r.Read()
	if err != nil {
		return fmt.Errorf("extract: read header of %s: %w", path, err)
	}
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = opts.canonical(h)
	}

	if *table == nil {
		*table = records.NewTable("", header...)
	} else if !equalHeaders(header, (*table).Columns) {
		return &SchemaMismatchError{File: filepath.Base(path), Got: header, Want: (*table).Columns}
	}

	width := len((*table).Columns)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("extract: %s line %d: %w", path, line, err)
		}
		if len(rec) != width {
			*skipped++
			continue
		}
		row := make([]any, width)
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}
		(*table).Rows = append((*table).Rows, row)
	}
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
