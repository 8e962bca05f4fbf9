package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		assert.NoError(t, err)
		assert.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	assert.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, "Assets", [][]any{
		{"Asset ID", "Name", "Location"},
		{"A-1", "Desk", "HQ"},
		{"A-2", "Chair", ""},
	})

	sheet, err := Load(path, "Assets")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Asset ID", "Name", "Location"}, sheet.FieldNames())
	assert.Equal(t, 2, sheet.RowCount())

	rows := sheet.Rows()
	assert.Equal(t, "A-1", rows[0]["Asset ID"])
	assert.Equal(t, "Desk", rows[0]["Name"])
	assert.Nil(t, rows[1]["Location"], "empty cell should load as nil")
}

func TestLoadDefaultsToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"id"},
		{"1"},
	})

	sheet, err := Load(path, "")
	assert.NoError(t, err)
	assert.Equal(t, 1, sheet.RowCount())
}

func TestLoadSkipsEmptyRows(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"id", "name"},
		{"1", "first"},
		{"", ""},
		{"2", "second"},
	})

	sheet, err := Load(path, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, sheet.RowCount())
	assert.Equal(t, "2", sheet.Rows()[1]["id"])
}

func TestLoadMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"id"}})

	_, err := Load(path, "NoSuchSheet")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	assert.Error(t, err)
}

func TestSheetNames(t *testing.T) {
	path := writeWorkbook(t, "Inventory", [][]any{{"id"}})

	names, err := SheetNames(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Inventory"}, names)
}
