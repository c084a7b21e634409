package dataprocessing

import (
	"sort"
	"time"

	"kpidash/pkg/contracts/domain"
)

// Filter returns the records matching every predicate of c, in input order.
// The result is never nil.
func Filter(records []domain.ProductionRecord, c domain.FilterCriteria) []domain.ProductionRecord {
	out := make([]domain.ProductionRecord, 0, len(records))
	for _, r := range records {
		if !c.Start.IsZero() && r.Date.Before(c.Start) {
			continue
		}
		if !c.End.IsZero() && r.Date.After(c.End) {
			continue
		}
		if !matchesOption(c.Machine, r.Machine) || !matchesOption(c.Shift, r.Shift) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// IsAll reports whether a filter value disables its predicate
func IsAll(v string) bool {
	return v == "" || v == domain.AllOption
}

func matchesOption(want, got string) bool {
	return IsAll(want) || want == got
}

// Options collects the date bounds and the sorted distinct machines and
// shifts of a table. ok is false for an empty table.
func Options(records []domain.ProductionRecord) (opts domain.FilterOptions, ok bool) {
	if len(records) == 0 {
		return domain.FilterOptions{Machines: []string{}, Shifts: []string{}}, false
	}

	minDate, maxDate := records[0].Date, records[0].Date
	machines := make(map[string]struct{})
	shifts := make(map[string]struct{})
	for _, r := range records {
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
		machines[r.Machine] = struct{}{}
		shifts[r.Shift] = struct{}{}
	}

	return domain.FilterOptions{
		MinDate:  minDate,
		MaxDate:  maxDate,
		Machines: sortedKeys(machines),
		Shifts:   sortedKeys(shifts),
	}, true
}

// DateBounds returns the earliest and latest record dates
func DateBounds(records []domain.ProductionRecord) (time.Time, time.Time, bool) {
	opts, ok := Options(records)
	return opts.MinDate, opts.MaxDate, ok
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
