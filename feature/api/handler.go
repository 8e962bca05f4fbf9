package api

import (
	"errors"

	"datasync/core/database"
	"datasync/core/logger"
	"datasync/core/mappings"
	"datasync/core/sync"
	"datasync/feature/excel"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for mappings, catalog inspection and diff
// previews. The database handle may be nil when the target database is not
// configured; catalog and diff endpoints then report 503.
type Handler struct {
	log   *zap.Logger
	db    *gorm.DB
	store *mappings.Store
}

// NewHandler creates a new HTTP handler.
func NewHandler(log *zap.Logger, db *gorm.DB, store *mappings.Store) *Handler {
	return &Handler{log: log, db: db, store: store}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)

	group := app.Group("/api")
	group.Get("/mappings", h.HandleListMappings)
	group.Get("/mappings/:name", h.HandleGetMapping)
	group.Post("/mappings", h.HandleSaveMapping)
	group.Delete("/mappings/:name", h.HandleDeleteMapping)
	group.Get("/tables", h.HandleListTables)
	group.Get("/tables/:schema/:table/columns", h.HandleListColumns)
	group.Post("/diff", h.HandleDiff)
}

// HandleHealth reports process liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleListMappings returns the names of all saved mappings.
func (h *Handler) HandleListMappings(c *fiber.Ctx) error {
	names, err := h.store.ListNames()
	if err != nil {
		return h.internalError(c, "Failed to list mappings", err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"mappings": names})
}

// HandleGetMapping returns one saved mapping.
func (h *Handler) HandleGetMapping(c *fiber.Ctx) error {
	name := c.Params("name")
	m, err := h.store.Load(name)
	if err != nil {
		if errors.Is(err, mappings.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "mapping not found",
			})
		}
		return h.internalError(c, "Failed to load mapping", err)
	}
	return c.JSON(fiber.Map{"name": m.Name, "mapping": m})
}

// HandleSaveMapping saves a mapping under the name given in the body.
func (h *Handler) HandleSaveMapping(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
		mappings.Mapping
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mapping name is required",
		})
	}

	m := body.Mapping
	m.Name = body.Name
	if err := h.store.Save(m); err != nil {
		return h.internalError(c, "Failed to save mapping", err)
	}

	logger.WithRequestID(h.log, c).Info("Mapping saved", zap.String("name", m.Name))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"name": m.Name})
}

// HandleDeleteMapping removes a saved mapping.
func (h *Handler) HandleDeleteMapping(c *fiber.Ctx) error {
	name := c.Params("name")
	deleted, err := h.store.Delete(name)
	if err != nil {
		return h.internalError(c, "Failed to delete mapping", err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "mapping not found",
		})
	}
	return c.JSON(fiber.Map{"deleted": name})
}

// HandleListTables returns the base tables of the connected database.
func (h *Handler) HandleListTables(c *fiber.Ctx) error {
	if h.db == nil {
		return h.noDatabase(c)
	}
	tables, err := database.ListTables(h.db)
	if err != nil {
		return h.internalError(c, "Failed to list tables", err)
	}
	return c.JSON(fiber.Map{"tables": tables})
}

// HandleListColumns returns the columns and primary key of one table.
func (h *Handler) HandleListColumns(c *fiber.Ctx) error {
	if h.db == nil {
		return h.noDatabase(c)
	}
	schema := c.Params("schema")
	table := c.Params("table")

	columns, err := database.ListColumns(h.db, schema, table)
	if err != nil {
		return h.internalError(c, "Failed to list columns", err)
	}
	pk, err := database.PrimaryKeyColumns(h.db, schema, table)
	if err != nil {
		return h.internalError(c, "Failed to read primary key", err)
	}
	return c.JSON(fiber.Map{"columns": columns, "primary_key": pk})
}

type diffRequest struct {
	// File is a server-local path to the spreadsheet.
	File    string `json:"file"`
	Sheet   string `json:"sheet"`
	Mapping string `json:"mapping"`
}

// HandleDiff loads a saved mapping and a spreadsheet, compares them against
// the target table and returns the change report. Nothing is written.
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	if h.db == nil {
		return h.noDatabase(c)
	}

	var req diffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.File == "" || req.Mapping == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file and mapping are required",
		})
	}

	m, err := h.store.Load(req.Mapping)
	if err != nil {
		if errors.Is(err, mappings.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "mapping not found",
			})
		}
		return h.internalError(c, "Failed to load mapping", err)
	}

	sheet, err := excel.Load(req.File, req.Sheet)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l := logger.WithRequestID(h.log, c)
	engine := sync.New(sync.NewStore(h.db), sync.WithLogger(l))
	report, err := engine.GenerateDiff(c.Context(), SyncConfig(m), sheet)
	if err != nil {
		l.Error("Diff failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"summary": report.Summary(),
		"entries": report.Entries,
	})
}

// SyncConfig converts a saved mapping into an engine configuration.
func SyncConfig(m *mappings.Mapping) sync.Config {
	cfg := sync.Config{
		Schema:    m.Schema,
		Table:     m.Table,
		KeySource: m.KeySource,
		KeyTarget: m.KeyTarget,
	}
	for _, pair := range m.Columns {
		cfg.Columns = append(cfg.Columns, sync.ColumnMapping{
			Source: pair.Source,
			Target: pair.Target,
		})
	}
	return cfg
}

func (h *Handler) internalError(c *fiber.Ctx, msg string, err error) error {
	logger.WithRequestID(h.log, c).Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (h *Handler) noDatabase(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "target database is not connected",
	})
}
