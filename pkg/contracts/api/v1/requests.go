// Package api contains API contract definitions for the production KPI dashboard.
// Version v1 represents the current stable API version.
package api

// FilterRequest carries the dashboard filter query parameters.
// Empty Start/End default to the loaded table's date bounds.
type FilterRequest struct {
	Start   string `json:"start" query:"start" validate:"omitempty,datetime=2006-01-02"`
	End     string `json:"end" query:"end" validate:"omitempty,datetime=2006-01-02"`
	Machine string `json:"machine" query:"machine" validate:"omitempty,max=128"`
	Shift   string `json:"shift" query:"shift" validate:"omitempty,max=128"`
}

// LanguageRequest selects the session display language
type LanguageRequest struct {
	Language string `json:"language" validate:"required,max=35"`
}

// ExportRequest selects the export format of the filtered table
type ExportRequest struct {
	FilterRequest
	Format string `json:"format" query:"format" validate:"omitempty,oneof=xlsx csv"`
}
