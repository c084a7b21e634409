package dataprocessing

import (
	"sort"
	"time"

	"kpidash/pkg/contracts/domain"
)

// Metric selects the record field a series aggregates
type Metric int

const (
	MetricOutput Metric = iota
	MetricDefects
)

func (m Metric) value(r domain.ProductionRecord) int {
	if m == MetricDefects {
		return r.Defects
	}
	return r.Output
}

// DailyPoint is one day of an aggregated series
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// MachinePoint is one machine of an aggregated series
type MachinePoint struct {
	Machine string `json:"machine"`
	Value   int    `json:"value"`
}

// DailyTotals sums metric per calendar day, dates ascending
func DailyTotals(records []domain.ProductionRecord, metric Metric) []DailyPoint {
	byDay := make(map[time.Time]int)
	for _, r := range records {
		byDay[domain.DateOf(r.Date)] += metric.value(r)
	}

	points := make([]DailyPoint, 0, len(byDay))
	for d, v := range byDay {
		points = append(points, DailyPoint{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// MachineTotals sums output per machine, highest first. Ties are ordered
// by machine name.
func MachineTotals(records []domain.ProductionRecord) []MachinePoint {
	byMachine := make(map[string]int)
	for _, r := range records {
		byMachine[r.Machine] += r.Output
	}

	points := make([]MachinePoint, 0, len(byMachine))
	for m, v := range byMachine {
		points = append(points, MachinePoint{Machine: m, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Machine < points[j].Machine
	})
	return points
}
