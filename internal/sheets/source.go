// Package sheets reads production tables from Google Sheets so they can
// feed the same loader as uploaded workbooks.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"kpidash/internal/config"
)

// RangeReader fetches a rectangular range of cell values
type RangeReader interface {
	ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// apiReader is the Google Sheets API backed RangeReader
type apiReader struct {
	service *sheetsapi.Service
}

// ReadRange asks for raw values so numbers and dates arrive as serials,
// matching what the xlsx reader produces.
func (r *apiReader) ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	resp, err := r.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}

// Source is a dataprocessing.Source backed by a spreadsheet range
type Source struct {
	reader        RangeReader
	spreadsheetID string
	sheetRange    string
	logger        *slog.Logger
}

// NewSource builds a Source using service account credentials from cfg
func NewSource(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must not be empty")
	}

	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return NewSourceWithReader(&apiReader{service: service}, cfg.SpreadsheetID, cfg.Range, logger), nil
}

// NewSourceWithReader builds a Source over any RangeReader
func NewSourceWithReader(reader RangeReader, spreadsheetID, sheetRange string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if sheetRange == "" {
		sheetRange = config.DefaultSheetsRange
	}
	return &Source{
		reader:        reader,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		logger:        logger.With(slog.String("component", "sheets_source")),
	}
}

// Name identifies the spreadsheet range
func (s *Source) Name() string {
	return fmt.Sprintf("sheets:%s/%s", s.spreadsheetID, s.sheetRange)
}

// Rows reads the configured range as a header-first string grid
func (s *Source) Rows(ctx context.Context) ([][]string, error) {
	values, err := s.reader.ReadRange(ctx, s.spreadsheetID, s.sheetRange)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "sheet range fetched",
		slog.String("range", s.sheetRange),
		slog.Int("rows", len(values)))
	return valuesToRows(values), nil
}

// valuesToRows stringifies API values. Numbers keep their shortest form so
// a serial date of 45292 stays "45292".
func valuesToRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cast.ToString(v)
		}
		rows[i] = cells
	}
	return rows
}
