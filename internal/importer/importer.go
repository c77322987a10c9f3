// Package importer reads operator report sheets into the row shape the
// batch driver consumes. XLSX and CSV are supported; the first row is
// always the header row.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetSource is a fully read sheet implementing batch.RowSource.
type SheetSource struct {
	headers []string
	rows    [][]string
	pos     int
}

// Headers returns the header row.
func (s *SheetSource) Headers() []string { return s.headers }

// Next returns the next data row, or io.EOF when exhausted.
func (s *SheetSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Len returns the number of data rows.
func (s *SheetSource) Len() int { return len(s.rows) }

// FromRows builds a source from in-memory rows, first row as headers.
func FromRows(rows [][]string) (*SheetSource, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet has no header row")
	}
	return &SheetSource{headers: rows[0], rows: rows[1:]}, nil
}

// Open dispatches on the file extension.
func Open(path string) (*SheetSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return OpenXLSX(path)
	case ".csv":
		return OpenCSV(path)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", filepath.Ext(path))
	}
}

// OpenXLSX reads the first sheet of a workbook.
func OpenXLSX(path string) (*SheetSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return FromRows(rows)
}

// OpenCSV reads a comma-separated file. Short rows are allowed; the batch
// layer treats missing trailing cells as empty.
func OpenCSV(path string) (*SheetSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return FromRows(rows)
}
