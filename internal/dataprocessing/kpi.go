package dataprocessing

import (
	"kpidash/pkg/contracts/domain"
)

// ShiftMinutes is the theoretical available time of one shift record.
// Each row counts as one shift of capacity.
const ShiftMinutes = 480

// Totals are the raw sums behind the KPIs
type Totals struct {
	Output   int
	Defects  int
	Downtime int
	Rows     int
}

// Sum adds up output, defects and downtime over records
func Sum(records []domain.ProductionRecord) Totals {
	t := Totals{Rows: len(records)}
	for _, r := range records {
		t.Output += r.Output
		t.Defects += r.Defects
		t.Downtime += r.DowntimeMinutes
	}
	return t
}

// ComputeKPIs calculates the KPI summary of a (possibly empty) table
func ComputeKPIs(records []domain.ProductionRecord) domain.KPISummary {
	if len(records) == 0 {
		return domain.KPISummary{}
	}

	t := Sum(records)

	var defectRate float64
	if t.Output > 0 {
		defectRate = float64(t.Defects) / float64(t.Output)
	}

	available := float64(ShiftMinutes * t.Rows)
	utilization := clamp(1-float64(t.Downtime)/available, 0, 1)

	var efficiency float64
	if denom := t.Output + t.Defects; denom > 0 {
		efficiency = float64(t.Output) / float64(denom)
	}

	return domain.KPISummary{
		TotalOutput:        t.Output,
		AvgDefectRate:      defectRate,
		MachineUtilization: utilization,
		EfficiencyScore:    efficiency,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
