package exporter

import (
	"fmt"
	"io"
	"time"

	"kpidash/pkg/contracts/domain"
)

// SummaryHeaders are the columns of the one-row KPI summary export
func SummaryHeaders() []string {
	return []string{
		"StartDate",
		"EndDate",
		"Machine",
		"Shift",
		"TotalOutput",
		"AvgDefectRate",
		"MachineUtilization",
		"EfficiencyScore",
	}
}

func summaryToCSVRow(s domain.KPISummaryRow) []string {
	return []string{
		formatDate(s.StartDate),
		formatDate(s.EndDate),
		s.Machine,
		s.Shift,
		formatInt(s.TotalOutput),
		formatFloat(s.AvgDefectRate),
		formatFloat(s.MachineUtilization),
		formatFloat(s.EfficiencyScore),
	}
}

// WriteSummary writes the KPI summary in the given format
func WriteSummary(w io.Writer, format Format, s domain.KPISummaryRow) error {
	if format == FormatCSV {
		return WriteSummaryCSV(w, s)
	}
	return WriteSummaryXLSX(w, s)
}

// WriteSummaryCSV writes the KPI summary as UTF-8 CSV
func WriteSummaryCSV(w io.Writer, s domain.KPISummaryRow) error {
	return WriteCSV(w, WriteOptions{
		Headers:   SummaryHeaders(),
		Records:   [][]string{summaryToCSVRow(s)},
		BOMPrefix: true,
	})
}

// WriteSummaryXLSX writes the KPI summary as a one-row workbook
func WriteSummaryXLSX(w io.Writer, s domain.KPISummaryRow) error {
	f, err := newWorkbook(summarySheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setRow(f, summarySheet, 1, toInterfaces(SummaryHeaders())); err != nil {
		return err
	}

	row := []interface{}{
		dateCell(s.StartDate),
		dateCell(s.EndDate),
		s.Machine,
		s.Shift,
		s.TotalOutput,
		s.AvgDefectRate,
		s.MachineUtilization,
		s.EfficiencyScore,
	}
	if err := setRow(f, summarySheet, 2, row); err != nil {
		return err
	}
	if err := applyDateStyle(f, summarySheet, "A2", "B2"); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// dateCell leaves open bounds blank
func dateCell(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
