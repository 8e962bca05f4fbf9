package database_test

import (
	"testing"

	"datasync/core/database"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newInspectorDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)

	err = db.Exec(`CREATE TABLE assets (
		asset_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT DEFAULT 'HQ'
	)`).Error
	assert.NoError(t, err)
	assert.NoError(t, db.Exec(`CREATE TABLE plain (id INTEGER)`).Error)

	return db
}

func TestListTables(t *testing.T) {
	db := newInspectorDB(t)

	tables, err := database.ListTables(db)
	assert.NoError(t, err)

	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
	}
	assert.Equal(t, []string{"assets", "plain"}, names)
}

func TestListColumns(t *testing.T) {
	db := newInspectorDB(t)

	columns, err := database.ListColumns(db, "", "assets")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	byName := make(map[string]database.ColumnInfo, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}

	assert.False(t, byName["name"].Nullable)
	assert.True(t, byName["location"].Nullable)
	assert.True(t, byName["location"].HasDefault)
	assert.False(t, byName["name"].HasDefault)
}

func TestPrimaryKeyColumns(t *testing.T) {
	db := newInspectorDB(t)

	pk, err := database.PrimaryKeyColumns(db, "", "assets")
	assert.NoError(t, err)
	assert.Equal(t, []string{"asset_id"}, pk)

	pk, err = database.PrimaryKeyColumns(db, "", "plain")
	assert.NoError(t, err)
	assert.Empty(t, pk)
}
