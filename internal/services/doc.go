// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the data pipeline so handlers only
// parse requests and render responses.
//
// # Dashboard pipeline
//
// DashboardService drives one session at a time:
//
//	Load (upload | sample | sheets) -> session table snapshot
//	View(criteria) -> Filter -> ComputeKPIs -> cards + chart series
//	Export / Chart(criteria) -> Filter -> exporter | charts
//
// A load replaces the session table only when it succeeds, so a rejected
// upload leaves the previous table in place. Tables are never mutated
// after load; every view recomputes from the snapshot.
//
// # Errors
//
// ErrNoData, ErrSheetsDisabled and ErrSampleMissing are sentinels for the
// transport layer to map. Loader errors (InputError, SchemaError,
// CellError) pass through unchanged.
//
// # Observability
//
// Each load, view, export and chart opens a span on the injected tracer
// and records a DashboardMetrics instrument.
package services
