package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"kpidash/pkg/contracts/domain"
)

// dateLayouts are the textual date forms accepted when a Date cell is not
// an Excel serial number
var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// Loader validates raw production tables and normalizes them into
// canonical records
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader; a nil logger falls back to slog.Default
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "record_loader"))}
}

// Load reads src and normalizes its rows. A nil source is an InputError.
func (l *Loader) Load(ctx context.Context, src Source) ([]domain.ProductionRecord, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, err
	}

	records, err := Normalize(rows)
	if err != nil {
		l.logger.WarnContext(ctx, "production table rejected",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "production table loaded",
		slog.String("source", src.Name()),
		slog.Int("rows", len(records)))
	return records, nil
}

// LoadExcel loads an uploaded workbook, or the workbook at path when no
// upload is given. With neither it returns ErrNoSource.
func (l *Loader) LoadExcel(ctx context.Context, upload io.Reader, path string) ([]domain.ProductionRecord, error) {
	switch {
	case upload != nil:
		return l.Load(ctx, &ReaderSource{Reader: upload})
	case path != "":
		return l.Load(ctx, &FileSource{Path: path})
	default:
		return nil, ErrNoSource
	}
}

// Normalize turns a header-first cell grid into canonical records.
// Unknown columns are dropped and row order is kept; fully blank rows
// are skipped.
func Normalize(rows [][]string) ([]domain.ProductionRecord, error) {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	records := make([]domain.ProductionRecord, 0, max(len(rows)-1, 0))
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		cell := func(col string) string {
			j := index[col]
			if j < len(row) {
				return row[j]
			}
			return ""
		}

		date, err := parseDate(cell(domain.ColumnDate))
		if err != nil {
			return nil, &CellError{Row: i + 1, Column: domain.ColumnDate, Value: cell(domain.ColumnDate), Err: err}
		}

		records = append(records, domain.ProductionRecord{
			Date:            date,
			Shift:           strings.TrimSpace(cell(domain.ColumnShift)),
			Machine:         strings.TrimSpace(cell(domain.ColumnMachine)),
			Output:          coerceInt(cell(domain.ColumnOutput)),
			Defects:         coerceInt(cell(domain.ColumnDefects)),
			DowntimeMinutes: coerceInt(cell(domain.ColumnDowntimeMinutes)),
		})
	}
	return records, nil
}

// coerceInt maps a cell to an integer, truncating fractions.
// Anything non-numeric becomes 0.
func coerceInt(raw string) int {
	f, err := cast.ToFloat64E(strings.TrimSpace(raw))
	if err != nil || math.IsNaN(f) || math.Abs(f) >= 1<<62 {
		return 0
	}
	return int(math.Trunc(f))
}

// parseDate accepts Excel serial numbers and common text layouts and
// discards the time of day
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := cast.ToFloat64E(s); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return domain.DateOf(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
