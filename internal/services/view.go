package services

import (
	"time"

	"kpidash/internal/dataprocessing"
	"kpidash/internal/i18n"
	"kpidash/pkg/contracts/domain"
)

// KPICard is one localized KPI tile
type KPICard struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// AppliedFilter echoes the effective filter, with open date bounds
// replaced by the table's bounds
type AppliedFilter struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Machine string `json:"machine"`
	Shift   string `json:"shift"`
}

// Series holds the chart data of a dashboard view
type Series struct {
	DailyOutput     []dataprocessing.DailyPoint   `json:"daily_output"`
	OutputByMachine []dataprocessing.MachinePoint `json:"output_by_machine"`
	DefectsTrend    []dataprocessing.DailyPoint   `json:"defects_trend"`
}

// DashboardView is everything the dashboard page shows for one filter
type DashboardView struct {
	Language  i18n.Lang         `json:"language"`
	Source    string            `json:"source"`
	LoadedAt  time.Time         `json:"loaded_at"`
	Filter    AppliedFilter     `json:"filter"`
	Rows      int               `json:"rows"`
	TotalRows int               `json:"total_rows"`
	KPIs      domain.KPISummary `json:"kpis"`
	Cards     []KPICard         `json:"cards"`
	Series    Series            `json:"series"`
}

// LoadResult describes a successful table load
type LoadResult struct {
	Source   string               `json:"source"`
	Rows     int                  `json:"rows"`
	LoadedAt time.Time            `json:"loaded_at"`
	Options  domain.FilterOptions `json:"options"`
}

// Download is a rendered export file
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// BuildCards formats the four KPIs for display in lang: output with digit
// grouping, rates as two-decimal percentages
func BuildCards(k domain.KPISummary, lang i18n.Lang) []KPICard {
	return []KPICard{
		{Key: "total_output", Label: i18n.T("total_output", lang), Value: i18n.FormatCount(lang, k.TotalOutput), Raw: float64(k.TotalOutput)},
		{Key: "avg_defect_rate", Label: i18n.T("avg_defect_rate", lang), Value: i18n.FormatPercent(lang, k.AvgDefectRate), Raw: k.AvgDefectRate},
		{Key: "machine_utilization", Label: i18n.T("machine_utilization", lang), Value: i18n.FormatPercent(lang, k.MachineUtilization), Raw: k.MachineUtilization},
		{Key: "efficiency_score", Label: i18n.T("efficiency_score", lang), Value: i18n.FormatPercent(lang, k.EfficiencyScore), Raw: k.EfficiencyScore},
	}
}

// EffectiveCriteria fills open date bounds from the table and turns blank
// machine or shift selections into the All option
func EffectiveCriteria(records []domain.ProductionRecord, c domain.FilterCriteria) domain.FilterCriteria {
	if minDate, maxDate, ok := dataprocessing.DateBounds(records); ok {
		if c.Start.IsZero() {
			c.Start = minDate
		}
		if c.End.IsZero() {
			c.End = maxDate
		}
	}
	if dataprocessing.IsAll(c.Machine) {
		c.Machine = domain.AllOption
	}
	if dataprocessing.IsAll(c.Shift) {
		c.Shift = domain.AllOption
	}
	return c
}

// SummaryRow computes the one-row KPI summary export of records under c.
// Open bounds are reported as the table's own date range.
func SummaryRow(records []domain.ProductionRecord, c domain.FilterCriteria) domain.KPISummaryRow {
	effective := EffectiveCriteria(records, c)
	return domain.KPISummaryRow{
		StartDate:  effective.Start,
		EndDate:    effective.End,
		Machine:    effective.Machine,
		Shift:      effective.Shift,
		KPISummary: dataprocessing.ComputeKPIs(dataprocessing.Filter(records, effective)),
	}
}

func appliedFilter(c domain.FilterCriteria) AppliedFilter {
	f := AppliedFilter{Machine: c.Machine, Shift: c.Shift}
	if !c.Start.IsZero() {
		f.Start = c.Start.Format(domain.DateLayout)
	}
	if !c.End.IsZero() {
		f.End = c.End.Format(domain.DateLayout)
	}
	return f
}
