package services

import "errors"

// Dashboard service errors
var (
	// ErrNoData is returned when the session has no loaded table
	ErrNoData = errors.New("no production data loaded")

	// ErrSheetsDisabled is returned when no Google Sheets source is configured
	ErrSheetsDisabled = errors.New("google sheets source is not configured")

	// ErrSampleMissing is returned when the sample workbook does not exist
	ErrSampleMissing = errors.New("sample data file not found")
)
