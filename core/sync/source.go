package sync

// Row is one source record: field names mapped to scalar values. Missing and
// blank fields are nil.
type Row map[string]any

// Source yields an ordered sequence of named-field records, materialized in
// file order. Implementations live under feature/ (Excel workbooks, CSV
// files); the engine only ever reads.
type Source interface {
	// FieldNames returns the available field names in file order.
	FieldNames() []string

	// RowCount returns the number of records.
	RowCount() int

	// Rows returns every record in file order.
	Rows() []Row
}
