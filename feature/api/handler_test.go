package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"datasync/core/database"
	"datasync/core/mappings"
	"datasync/feature/api"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupApp(t *testing.T, withDB bool) (*fiber.App, *mappings.Store, *gorm.DB) {
	t.Helper()

	store, err := mappings.Open(filepath.Join(t.TempDir(), "mappings.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var db *gorm.DB
	if withDB {
		db, err = database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
		assert.NoError(t, err)
	}

	app := fiber.New()
	api.NewHandler(zap.NewNop(), db, store).RegisterRoutes(app)
	return app, store, db
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestHandleHealth(t *testing.T) {
	app, _, _ := setupApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp.Body)["status"])
}

func TestMappingLifecycle(t *testing.T) {
	app, _, _ := setupApp(t, false)

	payload := `{
		"name": "inventory",
		"table": "assets",
		"key_source": "Asset ID",
		"key_target": "asset_id",
		"columns": [{"source": "Name", "target": "name"}]
	}`
	req := httptest.NewRequest("POST", "/api/mappings", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/mappings", nil))
	assert.NoError(t, err)
	assert.Equal(t, []any{"inventory"}, decodeBody(t, resp.Body)["mappings"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/mappings/inventory", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "inventory", body["name"])

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/mappings/inventory", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/mappings/inventory", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleGetMappingNotFound(t *testing.T) {
	app, _, _ := setupApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/mappings/missing", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleSaveMappingRequiresName(t *testing.T) {
	app, _, _ := setupApp(t, false)

	req := httptest.NewRequest("POST", "/api/mappings", bytes.NewBufferString(`{"table":"assets"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCatalogEndpointsWithoutDatabase(t *testing.T) {
	app, _, _ := setupApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/tables", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleListTablesAndColumns(t *testing.T) {
	app, _, db := setupApp(t, true)

	err := db.Exec(`CREATE TABLE assets (asset_id TEXT PRIMARY KEY, name TEXT NOT NULL, location TEXT)`).Error
	assert.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/tables", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	tables := decodeBody(t, resp.Body)["tables"].([]any)
	assert.Len(t, tables, 1)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/tables/main/assets/columns", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Len(t, body["columns"], 3)
	assert.Equal(t, []any{"asset_id"}, body["primary_key"])
}

func TestHandleDiff(t *testing.T) {
	app, store, db := setupApp(t, true)

	err := db.Exec(`CREATE TABLE assets (asset_id TEXT PRIMARY KEY, name TEXT, location TEXT)`).Error
	assert.NoError(t, err)
	err = db.Exec(`INSERT INTO assets (asset_id, name, location) VALUES ('A-1', 'Desk', 'HQ')`).Error
	assert.NoError(t, err)

	assert.NoError(t, store.Save(mappings.Mapping{
		Name:      "inventory",
		Table:     "assets",
		KeySource: "Asset ID",
		KeyTarget: "asset_id",
		Columns: []mappings.ColumnPair{
			{Source: "Name", Target: "name"},
			{Source: "Location", Target: "location"},
		},
	}))

	f := excelize.NewFile()
	rows := [][]any{
		{"Asset ID", "Name", "Location"},
		{"A-1", "Desk", "Warehouse"}, // modified
		{"A-2", "Chair", "HQ"},       // added
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "assets.xlsx")
	assert.NoError(t, f.SaveAs(path))
	f.Close()

	payload, err := json.Marshal(map[string]string{
		"file":    path,
		"mapping": "inventory",
	})
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/diff", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["added"])
	assert.Equal(t, float64(1), summary["modified"])
	assert.Equal(t, float64(0), summary["unchanged"])
}

func TestHandleDiffUnknownMapping(t *testing.T) {
	app, _, _ := setupApp(t, true)

	req := httptest.NewRequest("POST", "/api/diff", bytes.NewBufferString(`{"file":"x.xlsx","mapping":"missing"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
