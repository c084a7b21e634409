package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kpidash/pkg/contracts/domain"
)

const (
	dataSheet    = "Data"
	summarySheet = "KPI Summary"
	dateNumFmt   = "yyyy-mm-dd"
)

// RecordHeaders are the canonical production table columns
func RecordHeaders() []string {
	headers := make([]string, len(domain.RequiredColumns))
	copy(headers, domain.RequiredColumns)
	return headers
}

func recordToCSVRow(r domain.ProductionRecord) []string {
	return []string{
		formatDate(r.Date),
		r.Shift,
		r.Machine,
		formatInt(r.Output),
		formatInt(r.Defects),
		formatInt(r.DowntimeMinutes),
	}
}

// WriteRecords writes the production table in the given format
func WriteRecords(w io.Writer, format Format, records []domain.ProductionRecord) error {
	if format == FormatCSV {
		return WriteRecordsCSV(w, records)
	}
	return WriteRecordsXLSX(w, records)
}

// WriteRecordsCSV writes the production table as UTF-8 CSV
func WriteRecordsCSV(w io.Writer, records []domain.ProductionRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordToCSVRow(r))
	}
	return WriteCSV(w, WriteOptions{
		Headers:   RecordHeaders(),
		Records:   rows,
		BOMPrefix: true,
	})
}

// WriteRecordsXLSX writes the production table as a single-sheet workbook.
// Dates are stored as real date cells so the file loads back unchanged.
func WriteRecordsXLSX(w io.Writer, records []domain.ProductionRecord) error {
	f, err := newWorkbook(dataSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setRow(f, dataSheet, 1, toInterfaces(RecordHeaders())); err != nil {
		return err
	}
	for i, r := range records {
		row := []interface{}{r.Date, r.Shift, r.Machine, r.Output, r.Defects, r.DowntimeMinutes}
		if err := setRow(f, dataSheet, i+2, row); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		if err := applyDateStyle(f, dataSheet, "A2", fmt.Sprintf("A%d", len(records)+1)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// newWorkbook creates a workbook whose only sheet is named sheet
func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// applyDateStyle formats the cells between first and last as ISO dates
func applyDateStyle(f *excelize.File, sheet, first, last string) error {
	numFmt := dateNumFmt
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
