// Package timedim derives the calendar dimension (dim_time).
//
// The builder is pure: identical input dates always produce identical rows,
// which lets fact builders resolve dates against it with exact-match joins.
// time_id encodes the date as year*10000 + month*100 + day and is reversible
// without loss.
package timedim

import (
	"fmt"
	"sort"
	"time"

	"warehouse/internal/records"
	"warehouse/internal/schema"
)

// DateLayout is the canonical textual date form used across the pipeline.
const DateLayout = "2006-01-02"

// TimeID encodes a date as YYYYMMDD. The encoding is strictly monotonic in
// the date.
func TimeID(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DecodeTimeID reverses TimeID. It rejects encodings that do not map back to
// a real calendar date (e.g., 20200230).
func DecodeTimeID(id int) (time.Time, error) {
	year := id / 10000
	month := (id / 100) % 100
	day := id % 100
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("timedim: invalid time_id %d", id)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("timedim: invalid time_id %d", id)
	}
	return t, nil
}

// Dimension is a built calendar dimension: the persistable table plus the
// exact time_id list and the date→time_id mapping fact builders join on.
type Dimension struct {
	Table   *records.Table
	TimeIDs []int

	byDate map[int]struct{}
}

// TimeIDFor resolves a date to its time_id. The second return reports
// whether the dimension covers that date.
func (d *Dimension) TimeIDFor(t time.Time) (int, bool) {
	id := TimeID(t)
	_, ok := d.byDate[id]
	return id, ok
}

// dayOfWeek maps time.Weekday onto 1=Monday..7=Sunday.
func dayOfWeek(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func build(dates []time.Time) *Dimension {
	table := records.NewTable(schema.DimTime.Name, schema.DimTime.ColumnNames()...)
	dim := &Dimension{Table: table, byDate: make(map[int]struct{}, len(dates))}
	for _, date := range dates {
		id := TimeID(date)
		dow := dayOfWeek(date)
		table.Rows = append(table.Rows, []any{
			id,
			date,
			date.Year(),
			(int(date.Month())-1)/3 + 1,
			int(date.Month()),
			date.Day(),
			dow,
			date.Weekday().String(),
			dow >= 6,
		})
		dim.TimeIDs = append(dim.TimeIDs, id)
		dim.byDate[id] = struct{}{}
	}
	return dim
}

// BuildRange emits one row per calendar day in [start, end], inclusive and
// gap-free.
func BuildRange(start, end time.Time) (*Dimension, error) {
	start, end = truncate(start), truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("timedim: start %s after end %s",
			start.Format(DateLayout), end.Format(DateLayout))
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return build(dates), nil
}

// BuildDerived emits one row per distinct date present in the input, in
// ascending date order. Gaps in the source are not filled.
func BuildDerived(dates []time.Time) (*Dimension, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("timedim: no source dates")
	}
	distinct := make(map[int]time.Time, len(dates))
	for _, d := range dates {
		d = truncate(d)
		distinct[TimeID(d)] = d
	}
	ids := make([]int, 0, len(distinct))
	for id := range distinct {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ordered := make([]time.Time, len(ids))
	for i, id := range ids {
		ordered[i] = distinct[id]
	}
	return build(ordered), nil
}
