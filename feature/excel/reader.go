package excel

import (
	"fmt"

	"datasync/core/sync"

	"github.com/xuri/excelize/v2"
)

// Sheet is an in-memory worksheet: the header row as field names plus one
// map per data row. It implements the engine's source contract.
type Sheet struct {
	fields []string
	rows   []sync.Row
}

// SheetNames returns the worksheet names of an XLSX file in workbook order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// Load reads one worksheet from an XLSX file. An empty sheet name selects the
// first worksheet. The first row is taken as the header; empty cells become
// nil values, and rows with no non-empty cell are skipped.
func Load(path, sheet string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		names := f.GetSheetList()
		if len(names) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = names[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	fields := make([]string, 0, len(raw[0]))
	for _, h := range raw[0] {
		fields = append(fields, h)
	}

	s := &Sheet{fields: fields}
	for _, cells := range raw[1:] {
		row, empty := buildRow(fields, cells)
		if empty {
			continue
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}

// buildRow maps a cell slice onto the header fields. GetRows trims trailing
// empty cells, so short rows pad with nil.
func buildRow(fields []string, cells []string) (sync.Row, bool) {
	row := make(sync.Row, len(fields))
	empty := true
	for i, field := range fields {
		if i < len(cells) && cells[i] != "" {
			row[field] = cells[i]
			empty = false
		} else {
			row[field] = nil
		}
	}
	return row, empty
}

// FieldNames returns the header row.
func (s *Sheet) FieldNames() []string { return s.fields }

// RowCount returns the number of data rows.
func (s *Sheet) RowCount() int { return len(s.rows) }

// Rows returns the data rows in sheet order.
func (s *Sheet) Rows() []sync.Row { return s.rows }
