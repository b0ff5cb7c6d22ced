// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "source.csv.dir"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is error-severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	j, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.Validate(j)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateSynthetic(j.Synthetic)...)
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case SourceSynthetic:
		// Nothing source-specific; sizes are validated under synthetic.
	case SourceCSV:
		if strings.TrimSpace(s.CSV.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.csv.dir",
				Message:  "csv source requires a non-empty dir",
			})
		}
		if len([]rune(s.CSV.Comma)) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.csv.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", s.CSV.Comma),
			})
		}
		for i, layout := range s.CSV.DateLayouts {
			if strings.TrimSpace(layout) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("source.csv.date_layouts[%d]", i),
					Message:  "date layout must not be empty",
				})
			}
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; expected %q or %q", s.Kind, SourceSynthetic, SourceCSV),
		})
	}

	return issues
}

// validateSynthetic checks sizes against the allocatable key ranges and the
// date range for well-formedness.
func validateSynthetic(s Synthetic) []Issue {
	var issues []Issue

	checkCount := func(path string, n, max int) {
		if n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "count must not be negative",
			})
			return
		}
		if n > max {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("count %d exceeds the %d distinct keys available", n, max),
			})
		}
	}
	checkCount("synthetic.customers", s.Customers, 10000)
	checkCount("synthetic.products", s.Products, 1000)
	checkCount("synthetic.stores", s.Stores, 100)
	checkCount("synthetic.sales", s.Sales, 10000)
	checkCount("synthetic.inventory", s.Inventory, 10000)

	start, startErr := time.Parse("2006-01-02", s.StartDate)
	if startErr != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "synthetic.start_date",
			Message:  fmt.Sprintf("start_date %q is not a valid 2006-01-02 date", s.StartDate),
		})
	}
	end, endErr := time.Parse("2006-01-02", s.EndDate)
	if endErr != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "synthetic.end_date",
			Message:  fmt.Sprintf("end_date %q is not a valid 2006-01-02 date", s.EndDate),
		})
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "synthetic.end_date",
			Message:  fmt.Sprintf("end_date %s is before start_date %s", s.EndDate, s.StartDate),
		})
	}

	return issues
}

// validateStorage validates storage configuration and DB settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty (or set WAREHOUSE_DSN)",
		})
	}

	return issues
}

// validateRuntime validates Runtime for obvious misconfigurations.
func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; it must be positive", r.BatchSize),
		})
	}
	if r.ChunkTimeoutMS < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.chunk_timeout_ms",
			Message:  "chunk_timeout_ms must not be negative",
		})
	}

	return issues
}
