package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// RecordStore is the subset of target-database operations the engine needs.
// All operations run against a caller-supplied connection; implementations
// never open or close connections themselves.
type RecordStore interface {
	// FetchKeyedRows selects the key column plus every requested value column
	// in one query and returns the rows indexed by canonical key string.
	// Rows with a NULL key are dropped; duplicate keys resolve last-seen-wins.
	FetchKeyedRows(ctx context.Context, schema, table, keyColumn string, valueColumns []string) (map[string]TargetRecord, error)

	// InsertRow inserts one row holding the key column plus every column in
	// values. All values are bound as parameters.
	InsertRow(ctx context.Context, schema, table, keyColumn string, keyValue any, values map[string]any) error

	// UpdateRow updates only the columns present in changed, filtered by key
	// column equality. An empty changed set is a *QueryError.
	UpdateRow(ctx context.Context, schema, table, keyColumn string, keyValue any, changed map[string]any) error

	// Transaction runs fn inside one transaction, committing when fn returns
	// nil and rolling back otherwise.
	Transaction(ctx context.Context, fn func(tx RecordStore) error) error
}

// Store is the GORM-backed RecordStore used against live databases.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection handle. A nil handle is accepted; every
// operation then fails with ErrNotConnected.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FetchKeyedRows implements RecordStore.
func (s *Store) FetchKeyedRows(ctx context.Context, schema, table, keyColumn string, valueColumns []string) (map[string]TargetRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConnected
	}

	cols := append([]string{keyColumn}, valueColumns...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = s.quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.tableRef(schema, table))

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, &QueryError{Op: "fetch", Table: table, Err: err}
	}
	defer rows.Close()

	records := make(map[string]TargetRecord)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Op: "fetch", Table: table, Err: err}
		}

		key := values[0]
		if key == nil {
			// A NULL key cannot match any source record.
			continue
		}
		rec := TargetRecord{Key: key, Values: make(map[string]any, len(valueColumns))}
		for i, col := range valueColumns {
			rec.Values[col] = values[i+1]
		}
		records[canonical(key)] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "fetch", Table: table, Err: err}
	}
	return records, nil
}

// InsertRow implements RecordStore.
func (s *Store) InsertRow(ctx context.Context, schema, table, keyColumn string, keyValue any, values map[string]any) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}

	names := []string{s.quoteIdent(keyColumn)}
	placeholders := []string{"?"}
	args := []any{keyValue}
	for _, col := range sortedColumns(values) {
		names = append(names, s.quoteIdent(col))
		placeholders = append(placeholders, "?")
		args = append(args, values[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.tableRef(schema, table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if err := s.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return &QueryError{Op: "insert", Table: table, Err: err}
	}
	return nil
}

// UpdateRow implements RecordStore.
func (s *Store) UpdateRow(ctx context.Context, schema, table, keyColumn string, keyValue any, changed map[string]any) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	if len(changed) == 0 {
		return &QueryError{Op: "update", Table: table, Err: errors.New("no columns to update")}
	}

	sets := make([]string, 0, len(changed))
	args := make([]any, 0, len(changed)+1)
	for _, col := range sortedColumns(changed) {
		sets = append(sets, s.quoteIdent(col)+" = ?")
		args = append(args, changed[col])
	}
	args = append(args, keyValue)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		s.tableRef(schema, table), strings.Join(sets, ", "), s.quoteIdent(keyColumn))
	if err := s.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return &QueryError{Op: "update", Table: table, Err: err}
	}
	return nil
}

// Transaction implements RecordStore on top of GORM's transaction support.
func (s *Store) Transaction(ctx context.Context, fn func(tx RecordStore) error) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// quoteIdent quotes an identifier for the connected dialect, doubling any
// embedded quote characters so reserved words and mixed case survive.
func (s *Store) quoteIdent(name string) string {
	if s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "mysql" {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// tableRef builds the quoted, optionally schema-qualified table reference.
func (s *Store) tableRef(schema, table string) string {
	if schema == "" {
		return s.quoteIdent(table)
	}
	return s.quoteIdent(schema) + "." + s.quoteIdent(table)
}

// sortedColumns returns the map's keys sorted, so generated SQL is stable.
func sortedColumns(m map[string]any) []string {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
