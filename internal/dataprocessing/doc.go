// Package dataprocessing turns raw production spreadsheets into KPI data.
// It covers the whole path from workbook ingestion to the numbers shown on
// the dashboard.
//
// # Architecture
//
// The package is organized into three stages:
//
// 1. Loader: reads a workbook Source, validates the header and normalizes rows
// 2. Filter: narrows a table by date range, machine and shift
// 3. Aggregation: computes KPISummary values and chart series
//
// # Usage
//
// Loading an uploaded workbook:
//
//	loader := dataprocessing.NewLoader(logger)
//	records, err := loader.LoadExcel(ctx, upload, "")
//	if err != nil {
//	    return err
//	}
//
// Filtering and summarizing:
//
//	view := dataprocessing.Filter(records, domain.FilterCriteria{Machine: "M1"})
//	kpis := dataprocessing.ComputeKPIs(view)
//
// # Data Flow
//
//	Workbook → Source → Normalize → []ProductionRecord → Filter → ComputeKPIs
//
// # Error Handling
//
// Load failures are typed so callers can map them to responses:
//
//	- InputError when no source was given
//	- SchemaError listing every missing required column
//	- CellError naming the row and column of an unparseable date
//
// All other read failures are wrapped with %w.
package dataprocessing
