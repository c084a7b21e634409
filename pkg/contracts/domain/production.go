package domain

import (
	"time"
)

// DateLayout is the canonical textual form of a production date
const DateLayout = "2006-01-02"

// AllOption is the filter sentinel meaning "no filtering on this dimension"
const AllOption = "All"

// Canonical column names of a production workbook
const (
	ColumnDate            = "Date"
	ColumnShift           = "Shift"
	ColumnMachine         = "Machine"
	ColumnOutput          = "Output"
	ColumnDefects         = "Defects"
	ColumnDowntimeMinutes = "DowntimeMinutes"
)

// RequiredColumns lists the canonical columns in table order
var RequiredColumns = []string{
	ColumnDate,
	ColumnShift,
	ColumnMachine,
	ColumnOutput,
	ColumnDefects,
	ColumnDowntimeMinutes,
}

// ProductionRecord is one row of the canonical production table.
// Date is always midnight UTC.
type ProductionRecord struct {
	Date            time.Time `json:"date"`
	Shift           string    `json:"shift"`
	Machine         string    `json:"machine"`
	Output          int       `json:"output"`
	Defects         int       `json:"defects"`
	DowntimeMinutes int       `json:"downtime_minutes"`
}

// KPISummary holds the four aggregate KPIs of a table snapshot
type KPISummary struct {
	TotalOutput        int     `json:"total_output"`
	AvgDefectRate      float64 `json:"avg_defect_rate"`
	MachineUtilization float64 `json:"machine_utilization"`
	EfficiencyScore    float64 `json:"efficiency_score"`
}

// FilterCriteria narrows a table by date range, machine and shift.
// A zero Start or End is an open bound; an empty or AllOption
// Machine/Shift disables that predicate.
type FilterCriteria struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Machine string    `json:"machine"`
	Shift   string    `json:"shift"`
}

// FilterOptions describes the values available to the filter controls
type FilterOptions struct {
	MinDate  time.Time `json:"min_date"`
	MaxDate  time.Time `json:"max_date"`
	Machines []string  `json:"machines"`
	Shifts   []string  `json:"shifts"`
}

// KPISummaryRow is the one-row summary export: filter bounds plus KPIs
type KPISummaryRow struct {
	StartDate time.Time
	EndDate   time.Time
	Machine   string
	Shift     string
	KPISummary
}

// DateOf truncates t to its calendar date at midnight UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
