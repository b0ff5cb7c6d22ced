// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the warehouse build.
//
// The package mirrors the storage abstraction pattern: a narrow Backend
// interface, a global pluggable backend defaulting to a no-op, and concrete
// metric systems (Prometheus Pushgateway, Datadog) isolated in subpackages.
// Metric calls are always safe even when no real backend is configured.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline step
// (a dimension or fact build, dedup, or a table load).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("warehouse_step_total", 1, lbls)
	backend.ObserveHistogram("warehouse_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job, table, and
// kind.
//
// Typical kinds mirror the run report fields:
//   - "built"
//   - "deduped"
//   - "loaded"
func RecordRows(job, table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("warehouse_rows_total", float64(delta), Labels{
		"job":   job,
		"table": table,
		"kind":  kind,
	})
}

// RecordBatches increments the flushed-batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("warehouse_batches_total", float64(delta), Labels{
		"job": job,
	})
}
