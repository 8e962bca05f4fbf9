package database

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// TableInfo identifies one base table in the connected database.
type TableInfo struct {
	Schema string
	Name   string
}

// ColumnInfo describes one column of a table, as reported by the catalog.
type ColumnInfo struct {
	Name       string
	DataType   string
	Nullable   bool
	HasDefault bool
}

// ListTables returns every user-visible base table, ordered by schema then
// name. System catalogs are excluded.
func ListTables(db *gorm.DB) ([]TableInfo, error) {
	if db == nil {
		return nil, fmt.Errorf("no database connection")
	}

	if db.Dialector.Name() == DriverSQLite {
		var names []string
		err := db.Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`).
			Scan(&names).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		tables := make([]TableInfo, len(names))
		for i, n := range names {
			tables[i] = TableInfo{Name: n}
		}
		return tables, nil
	}

	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_type = 'BASE TABLE'
		ORDER BY table_schema, table_name`
	if db.Dialector.Name() == DriverMySQL {
		query = `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	}

	var rows []struct {
		TableSchema string
		TableName   string
	}
	if err := db.Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	tables := make([]TableInfo, len(rows))
	for i, r := range rows {
		tables[i] = TableInfo{Schema: r.TableSchema, Name: r.TableName}
	}
	return tables, nil
}

// ListColumns returns the column definitions for a table in ordinal position
// order. On SQLite the schema argument is ignored.
func ListColumns(db *gorm.DB, schema, table string) ([]ColumnInfo, error) {
	if db == nil {
		return nil, fmt.Errorf("no database connection")
	}

	if db.Dialector.Name() == DriverSQLite {
		cols, err := sqliteTableInfo(db, table)
		if err != nil {
			return nil, err
		}
		out := make([]ColumnInfo, len(cols))
		for i, c := range cols {
			out[i] = ColumnInfo{
				Name:       c.Name,
				DataType:   c.Type,
				Nullable:   c.Notnull == 0,
				HasDefault: c.DfltValue != nil,
			}
		}
		return out, nil
	}

	var rows []struct {
		ColumnName    string
		DataType      string
		IsNullable    string
		ColumnDefault *string
	}
	err := db.Raw(`
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, schema, table).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s.%s: %w", schema, table, err)
	}

	out := make([]ColumnInfo, len(rows))
	for i, r := range rows {
		out[i] = ColumnInfo{
			Name:       r.ColumnName,
			DataType:   r.DataType,
			Nullable:   r.IsNullable == "YES",
			HasDefault: r.ColumnDefault != nil,
		}
	}
	return out, nil
}

// PrimaryKeyColumns returns the primary key column names of a table in key
// order. The result is empty when the table has no primary key.
func PrimaryKeyColumns(db *gorm.DB, schema, table string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("no database connection")
	}

	switch db.Dialector.Name() {
	case DriverSQLite:
		cols, err := sqliteTableInfo(db, table)
		if err != nil {
			return nil, err
		}
		var pk []struct {
			name  string
			order int
		}
		for _, c := range cols {
			if c.Pk > 0 {
				pk = append(pk, struct {
					name  string
					order int
				}{c.Name, c.Pk})
			}
		}
		sort.Slice(pk, func(i, j int) bool { return pk[i].order < pk[j].order })
		names := make([]string, len(pk))
		for i, p := range pk {
			names[i] = p.name
		}
		return names, nil

	case DriverMySQL:
		var names []string
		err := db.Raw(`
			SELECT column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE()
			  AND table_name = ?
			  AND constraint_name = 'PRIMARY'
			ORDER BY ordinal_position`, table).Scan(&names).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read primary key for %s: %w", table, err)
		}
		return names, nil

	default:
		var names []string
		err := db.Raw(`
			SELECT a.attname
			FROM pg_index i
			JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
			JOIN pg_class c ON c.oid = i.indrelid
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE i.indisprimary
			  AND n.nspname = ?
			  AND c.relname = ?
			ORDER BY array_position(i.indkey, a.attnum)`, schema, table).Scan(&names).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read primary key for %s.%s: %w", schema, table, err)
		}
		return names, nil
	}
}

type sqliteColumn struct {
	Cid       int
	Name      string
	Type      string
	Notnull   int
	DfltValue *string
	Pk        int
}

// sqliteTableInfo runs PRAGMA table_info. PRAGMA arguments cannot be bound,
// so the table name is escaped by doubling single quotes.
func sqliteTableInfo(db *gorm.DB, table string) ([]sqliteColumn, error) {
	escaped := ""
	for _, r := range table {
		if r == '\'' {
			escaped += "''"
		} else {
			escaped += string(r)
		}
	}
	var cols []sqliteColumn
	if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", escaped)).Scan(&cols).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	return cols, nil
}
