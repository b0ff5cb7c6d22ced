// Package dedup removes rows whose natural key already appeared earlier in a
// table. It runs in memory on one table before load, so reprocessed batches
// never push duplicate natural keys at the storage boundary; the database's
// PRIMARY KEY remains a backstop.
//
// Policy is fixed to keep-first: the first occurrence in input order wins and
// later duplicates are dropped, not merged.
package dedup

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"warehouse/internal/records"
)

// keyBytes folds the key column values of one row into one encoded key.
// Values are separated by 0x1f and nil is encoded as 0x00 so that ("a","")
// and ("a",nil) and ("a" + "") keep distinct identities.
func keyBytes(row []any, keyIdx []int) []byte {
	buf := make([]byte, 0, 64)
	for i, idx := range keyIdx {
		if i > 0 {
			buf = append(buf, 0x1f)
		}
		switch v := row[idx].(type) {
		case nil:
			buf = append(buf, 0x00)
		case string:
			buf = append(buf, v...)
		default:
			buf = append(buf, fmt.Sprint(v)...)
		}
	}
	return buf
}

// hashKey is a seam so tests can force bucket collisions.
var hashKey = xxh3.Hash

// Dedupe returns a new table containing at most one row per natural-key
// value, keeping the first occurrence, plus the number of rows dropped.
// Every key column must exist in the table.
func Dedupe(t *records.Table, keyColumns []string) (*records.Table, int, error) {
	if len(keyColumns) == 0 {
		return nil, 0, fmt.Errorf("dedup: table %s: no key columns given", t.Name)
	}
	keyIdx := make([]int, len(keyColumns))
	for i, c := range keyColumns {
		idx := t.ColumnIndex(c)
		if idx < 0 {
			return nil, 0, fmt.Errorf("dedup: table %s: no column %q", t.Name, c)
		}
		keyIdx[i] = idx
	}

	out := records.NewTable(t.Name, t.Columns...)
	out.Rows = make([][]any, 0, len(t.Rows))
	// Buckets on the xxh3 hash but keeps the full encoded keys, so two
	// distinct keys that happen to share a hash are both retained.
	seen := make(map[uint64][]string, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		key := keyBytes(row, keyIdx)
		h := hashKey(key)
		dup := false
		for _, k := range seen[h] {
			if k == string(key) {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}
		seen[h] = append(seen[h], string(key))
		out.Rows = append(out.Rows, row)
	}
	return out, dropped, nil
}
