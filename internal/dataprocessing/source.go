package dataprocessing

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Source yields the raw cell grid of a production table, header row first
type Source interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
}

// ReaderSource reads an xlsx workbook from an in-memory stream such as an upload
type ReaderSource struct {
	Label  string
	Reader io.Reader
}

// Name returns the upload label
func (s *ReaderSource) Name() string {
	if s.Label == "" {
		return "upload"
	}
	return s.Label
}

// Rows reads the first worksheet of the workbook
func (s *ReaderSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := excelize.OpenReader(s.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return firstSheetRows(f)
}

// FileSource reads an xlsx workbook from disk
type FileSource struct {
	Path string
}

// Name returns the workbook path
func (s *FileSource) Name() string {
	return s.Path
}

// Rows reads the first worksheet of the workbook
func (s *FileSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return firstSheetRows(f)
}

// firstSheetRows returns the raw (unformatted) values of the first worksheet,
// so dates come back as serial numbers and numbers without grouping.
func firstSheetRows(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
