// Package exporter writes production tables and KPI summaries as xlsx
// workbooks or UTF-8 CSV.
//
// Record exports keep the six canonical columns with dates stored as real
// date cells, so an exported workbook loads back into the same records.
// Summary exports hold a single row describing the active filter and its
// KPIs.
//
// Example usage:
//
//	var buf bytes.Buffer
//	err := exporter.WriteRecords(&buf, exporter.FormatXLSX, records)
//
//	err = exporter.WriteFile("out/kpi_summary.xlsx", func(w io.Writer) error {
//	    return exporter.WriteSummaryXLSX(w, summary)
//	})
package exporter
