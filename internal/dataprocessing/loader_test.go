package dataprocessing

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpidash/pkg/contracts/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// buildWorkbook writes rows into the first sheet of a new workbook
func buildWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	return f
}

func TestNormalize(t *testing.T) {
	header := []string{"Date", "Shift", "Machine", "Output", "Defects", "DowntimeMinutes"}

	tests := []struct {
		name    string
		rows    [][]string
		want    []domain.ProductionRecord
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "text dates and integer coercion",
			rows: [][]string{
				header,
				{"2024-01-01", "A", "M1", "500", "10", "30"},
				{"2024-01-02", "B", "M2", "480.9", "8", "20"},
			},
			want: []domain.ProductionRecord{
				{Date: day("2024-01-01"), Shift: "A", Machine: "M1", Output: 500, Defects: 10, DowntimeMinutes: 30},
				{Date: day("2024-01-02"), Shift: "B", Machine: "M2", Output: 480, Defects: 8, DowntimeMinutes: 20},
			},
		},
		{
			name: "serial dates",
			rows: [][]string{
				header,
				{"45292", "A", "M1", "1", "0", "0"},
			},
			want: []domain.ProductionRecord{
				{Date: day("2024-01-01"), Shift: "A", Machine: "M1", Output: 1},
			},
		},
		{
			name: "non numeric values become zero",
			rows: [][]string{
				header,
				{"2024-01-01", "A", "M1", "abc", "", "NaN"},
			},
			want: []domain.ProductionRecord{
				{Date: day("2024-01-01"), Shift: "A", Machine: "M1"},
			},
		},
		{
			name: "extra columns dropped and order independent",
			rows: [][]string{
				{"Notes", "Machine", "Output", "Date", "DowntimeMinutes", "Shift", "Defects"},
				{"ignored", "M3", "100", "2024-02-01", "5", "C", "2"},
			},
			want: []domain.ProductionRecord{
				{Date: day("2024-02-01"), Shift: "C", Machine: "M3", Output: 100, Defects: 2, DowntimeMinutes: 5},
			},
		},
		{
			name: "blank rows skipped and short rows padded",
			rows: [][]string{
				header,
				{"", " ", ""},
				{"2024-01-01", "A", "M1", "7"},
			},
			want: []domain.ProductionRecord{
				{Date: day("2024-01-01"), Shift: "A", Machine: "M1", Output: 7},
			},
		},
		{
			name: "header only",
			rows: [][]string{header},
			want: []domain.ProductionRecord{},
		},
		{
			name: "missing columns listed in required order",
			rows: [][]string{
				{"Date", "Shift", "Machine", "Output"},
				{"2024-01-01", "A", "M1", "1"},
			},
			wantErr: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Equal(t, []string{"Defects", "DowntimeMinutes"}, schemaErr.Missing)
				assert.Equal(t, "missing columns in data: ['Defects', 'DowntimeMinutes']", err.Error())
			},
		},
		{
			name: "empty grid reports every column",
			rows: nil,
			wantErr: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Equal(t, domain.RequiredColumns, schemaErr.Missing)
			},
		},
		{
			name: "unparseable date",
			rows: [][]string{
				header,
				{"2024-01-01", "A", "M1", "1", "0", "0"},
				{"yesterday", "A", "M1", "1", "0", "0"},
			},
			wantErr: func(t *testing.T, err error) {
				var cellErr *CellError
				require.ErrorAs(t, err, &cellErr)
				assert.Equal(t, 3, cellErr.Row)
				assert.Equal(t, domain.ColumnDate, cellErr.Column)
				assert.Equal(t, "yesterday", cellErr.Value)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.rows)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader_LoadExcel(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(nil)

	t.Run("upload", func(t *testing.T) {
		f := buildWorkbook(t, [][]interface{}{
			{"Date", "Shift", "Machine", "Output", "Defects", "DowntimeMinutes"},
			{"2024-01-01", "A", "M1", 500, 10, 30},
			{"2024-01-01", "B", "M2", 480, 8, 20},
		})
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		records, err := loader.LoadExcel(ctx, bytes.NewReader(buf.Bytes()), "")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "M2", records[1].Machine)
		assert.Equal(t, 20, records[1].DowntimeMinutes)
	})

	t.Run("path", func(t *testing.T) {
		f := buildWorkbook(t, [][]interface{}{
			{"Date", "Shift", "Machine", "Output", "Defects", "DowntimeMinutes"},
			{day("2024-03-05"), "A", "M1", 10, 1, 0},
		})
		path := filepath.Join(t.TempDir(), "production.xlsx")
		require.NoError(t, f.SaveAs(path))

		records, err := loader.LoadExcel(ctx, nil, path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, day("2024-03-05"), records[0].Date)
	})

	t.Run("upload wins over path", func(t *testing.T) {
		f := buildWorkbook(t, [][]interface{}{
			{"Date", "Shift", "Machine", "Output", "Defects", "DowntimeMinutes"},
			{"2024-01-01", "A", "Uploaded", 1, 0, 0},
		})
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		records, err := loader.LoadExcel(ctx, buf, filepath.Join(t.TempDir(), "missing.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, "Uploaded", records[0].Machine)
	})

	t.Run("no source", func(t *testing.T) {
		_, err := loader.LoadExcel(ctx, nil, "")
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.True(t, errors.Is(err, ErrNoSource))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadExcel(ctx, nil, filepath.Join(t.TempDir(), "nope.xlsx"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open file")
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := loader.LoadExcel(ctx, bytes.NewReader([]byte("plain text")), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open workbook")
	})
}

func TestLoader_LoadNilSource(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestCoerceInt(t *testing.T) {
	cases := map[string]int{
		"12":    12,
		" 12 ":  12,
		"12.99": 12,
		"-3":    -3,
		"":      0,
		"x":     0,
		"Inf":   0,
		"1e400": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, coerceInt(in), "input %q", in)
	}
}
