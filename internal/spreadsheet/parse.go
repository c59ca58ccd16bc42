package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"energy_finance/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format (use .csv or .xlsx)")

	// ErrInvalidSheet wraps every problem that prevents reading the sheet at all
	ErrInvalidSheet = errors.New("invalid spreadsheet")
)

// RowError is a problem with one cell or row. Row is the 1-based sheet row,
// so the first data row is 2.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Column, e.Message)
}

// ParsedRow is a project read from one sheet row
type ParsedRow struct {
	Row     int                       `json:"row"`
	Project domain.ProjectDescription `json:"project"`
}

// ParseResult holds the rows that parsed and the problems of those that did not
type ParseResult struct {
	Rows   []ParsedRow `json:"rows"`
	Errors []RowError  `json:"errors,omitempty"`
}

// Parse picks the reader by file extension
func Parse(filename string, r io.Reader) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads a filled-in CSV template
func ParseCSV(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrInvalidSheet, err)
	}
	return parseRecords(records)
}

// ParseXLSX reads the "Project Data" sheet of a filled-in workbook, or the
// first sheet when it has been renamed
func ParseXLSX(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidSheet, err)
	}
	defer f.Close()

	sheet := DataSheet
	if idx, _ := f.GetSheetIndex(DataSheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSheet)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRecords(rows)
}

func parseRecords(records [][]string) (*ParseResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrInvalidSheet)
	}

	header, err := parseHeader(records[0])
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Rows: []ParsedRow{}}
	for i, record := range records[1:] {
		rowNum := i + 2
		if isBlank(record) {
			continue
		}

		project, rowErrs := parseRow(rowNum, header, record)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		result.Rows = append(result.Rows, ParsedRow{Row: rowNum, Project: project})
	}
	return result, nil
}

func parseHeader(cells []string) ([]Column, error) {
	header := make([]Column, len(cells))
	seen := make(map[string]bool, len(cells))
	var unknown []string

	for i, cell := range cells {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if name == "" {
			continue
		}
		col, ok := columnByName(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSheet, name)
		}
		seen[name] = true
		header[i] = col
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown columns: %s", ErrInvalidSheet, strings.Join(unknown, ", "))
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: header row has no known columns", ErrInvalidSheet)
	}
	return header, nil
}

func parseRow(rowNum int, header []Column, record []string) (domain.ProjectDescription, []RowError) {
	var p domain.ProjectDescription
	var errs []RowError

	for i, cell := range record {
		value := strings.TrimSpace(cell)
		if value == "" {
			continue
		}
		if i >= len(header) || header[i].set == nil {
			errs = append(errs, RowError{Row: rowNum, Message: fmt.Sprintf("value %q in column %d has no header", value, i+1)})
			continue
		}
		if err := header[i].set(&p, value); err != nil {
			errs = append(errs, RowError{Row: rowNum, Column: header[i].Name, Message: err.Error()})
		}
	}
	return p, errs
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
