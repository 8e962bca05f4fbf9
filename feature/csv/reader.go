package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"datasync/core/sync"
)

// File is an in-memory CSV: the header row as field names plus one map per
// data row. It implements the engine's source contract.
type File struct {
	fields []string
	rows   []sync.Row
}

// Load reads a CSV file. The first record is taken as the header; empty
// fields become nil values, and records with no non-empty field are skipped.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()

	return Read(fh)
}

// Read parses CSV data from r; see Load.
func Read(r io.Reader) (*File, error) {
	cr := csv.NewReader(r)
	// Rows narrower or wider than the header are tolerated like short
	// spreadsheet rows.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	f := &File{fields: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		row := make(sync.Row, len(header))
		empty := true
		for i, field := range header {
			if i < len(record) && record[i] != "" {
				row[field] = record[i]
				empty = false
			} else {
				row[field] = nil
			}
		}
		if !empty {
			f.rows = append(f.rows, row)
		}
	}
	return f, nil
}

// FieldNames returns the header record.
func (f *File) FieldNames() []string { return f.fields }

// RowCount returns the number of data rows.
func (f *File) RowCount() int { return len(f.rows) }

// Rows returns the data rows in file order.
func (f *File) Rows() []sync.Row { return f.rows }
