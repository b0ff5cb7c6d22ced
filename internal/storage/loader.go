// This file implements the generic, chunked loader. It slices a fully built
// table into fixed-size batches and invokes a backend bulk-insert function
// (CopyFn) per batch, bounding both memory and per-statement size.
//
// On every successful flush a concise progress line is emitted with running
// totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert. Implementations insert the rows
// (aligned to the columns order), skip duplicate primary keys, and return
// the number of rows actually inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches writes rows in batches of batchSize through copyFn and returns
// the total inserted count with the first error encountered.
//
// When chunkTimeout > 0 every copyFn call runs under its own deadline, so a
// stuck write surfaces as a load error instead of hanging the run.
func LoadBatches(
	ctx context.Context,
	columns []string,
	rows [][]any,
	batchSize int,
	chunkTimeout time.Duration,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("storage: batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("storage: copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		start     = time.Now()
		lastFlush = start
	)

	flush := func(batch [][]any) error {
		flushCtx, cancel := ctx, context.CancelFunc(func() {})
		if chunkTimeout > 0 {
			flushCtx, cancel = context.WithTimeout(ctx, chunkTimeout)
		}
		n, err := copyFn(flushCtx, columns, batch)
		cancel()
		total += n
		if err != nil {
			log.Printf("loader: batch insert failed after=%d total=%d err=%v", n, total, err)
			return err
		}
		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlush = now
		return nil
	}

	for len(rows) > 0 {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		n := batchSize
		if n > len(rows) {
			n = len(rows)
		}
		if err := flush(rows[:n]); err != nil {
			return total, err
		}
		rows = rows[n:]
	}
	return total, nil
}
