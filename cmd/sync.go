package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"datasync/core/config"
	"datasync/core/database"
	"datasync/core/logger"
	"datasync/core/mappings"
	"datasync/core/sync"
	"datasync/feature/api"
	csvfile "datasync/feature/csv"
	"datasync/feature/excel"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncFile    string
	syncSheet   string
	syncMapping string
	syncSchema  string
	syncTable   string
	syncKeySrc  string
	syncKeyDst  string
	syncPairs   []string
	applyFlag   bool
	dryRunFlag  bool
	yesConfirm  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compare a spreadsheet against a database table and apply the changes",
	Long: `Compare a spreadsheet against a database table, report the differences,
and optionally apply them in a single transaction.

The column mapping comes either from a saved mapping (--mapping) or from
flags (--table, --key-source, --key-target and repeated --map src=dst).

Examples:
  # Report only (dry-run is the default)
  datasync sync --file assets.xlsx --mapping inventory

  # Apply with interactive confirmation
  datasync sync --file assets.xlsx --mapping inventory --apply

  # Apply non-interactively
  datasync sync --file assets.csv --table assets \
    --key-source "Asset ID" --key-target asset_id \
    --map "Name=name" --map "Location=location" --apply --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Spreadsheet path (.xlsx or .csv)")
	syncCmd.Flags().StringVar(&syncSheet, "sheet", "", "Worksheet name (default: first sheet)")
	syncCmd.Flags().StringVar(&syncMapping, "mapping", "", "Name of a saved mapping to use")
	syncCmd.Flags().StringVar(&syncSchema, "schema", "", "Target schema")
	syncCmd.Flags().StringVar(&syncTable, "table", "", "Target table")
	syncCmd.Flags().StringVar(&syncKeySrc, "key-source", "", "Source field holding the record key")
	syncCmd.Flags().StringVar(&syncKeyDst, "key-target", "", "Target column holding the record key")
	syncCmd.Flags().StringArrayVar(&syncPairs, "map", nil, "Column pair source=target (repeatable)")
	syncCmd.Flags().BoolVar(&applyFlag, "apply", false, "Apply the detected changes")
	syncCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Force dry-run (no writes even with --apply)")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm the apply step (non-interactive)")
	_ = syncCmd.MarkFlagRequired("file")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	syncCfg, err := resolveSyncConfig(cfg.Mappings.Path)
	if err != nil {
		return err
	}

	src, err := loadSource(syncFile, syncSheet)
	if err != nil {
		return err
	}
	l.Info("Loaded source",
		zap.String("file", syncFile),
		zap.Int("rows", src.RowCount()),
		zap.Int("fields", len(src.FieldNames())),
	)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	engine := sync.New(sync.NewStore(db),
		sync.WithLogger(l),
		sync.WithProgress(logProgress(l)),
	)

	report, err := engine.GenerateDiff(ctx, syncCfg, src)
	if err != nil {
		return fmt.Errorf("failed to generate diff: %w", err)
	}

	printDiffReport(l, syncCfg, report)

	if !applyFlag {
		l.Info("No actions requested. Use --apply to write the detected changes.")
		return nil
	}
	if dryRunFlag {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	summary := report.Summary()
	if summary.Added == 0 && summary.Modified == 0 {
		l.Info("Target table already matches the source. Nothing to apply.")
		return nil
	}

	if !confirmApply(summary.Added, summary.Modified) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	result, err := engine.Apply(ctx, syncCfg, report)
	if err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}

	l.Info("Sync complete",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.String("result", result.Message),
	)
	return nil
}

// resolveSyncConfig builds the engine configuration from a saved mapping or
// from the table/key/map flags.
func resolveSyncConfig(storePath string) (sync.Config, error) {
	if syncMapping != "" {
		store, err := mappings.Open(storePath)
		if err != nil {
			return sync.Config{}, err
		}
		defer store.Close()

		m, err := store.Load(syncMapping)
		if err != nil {
			return sync.Config{}, err
		}
		return api.SyncConfig(m), nil
	}

	if syncTable == "" {
		return sync.Config{}, fmt.Errorf("either --mapping or --table is required")
	}

	pairs, err := parseColumnPairs(syncPairs)
	if err != nil {
		return sync.Config{}, err
	}
	return sync.Config{
		Schema:    syncSchema,
		Table:     syncTable,
		KeySource: syncKeySrc,
		KeyTarget: syncKeyDst,
		Columns:   pairs,
	}, nil
}

// loadSource picks the reader from the file extension.
func loadSource(path, sheet string) (sync.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvfile.Load(path)
	default:
		return excel.Load(path, sheet)
	}
}

func parseColumnPairs(raw []string) ([]sync.ColumnMapping, error) {
	pairs := make([]sync.ColumnMapping, 0, len(raw))
	for _, r := range raw {
		src, dst, ok := strings.Cut(r, "=")
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("invalid --map value %q, expected source=target", r)
		}
		pairs = append(pairs, sync.ColumnMapping{Source: src, Target: dst})
	}
	return pairs, nil
}

// logProgress reports progress at a coarse interval so large files do not
// flood the log.
func logProgress(l *zap.Logger) sync.ProgressFunc {
	const step = 500
	return func(stage sync.Stage, current, total int) {
		if current%step == 0 || current == total {
			l.Info("Progress",
				zap.String("stage", string(stage)),
				zap.Int("current", current),
				zap.Int("total", total),
			)
		}
	}
}

// printDiffReport prints a formatted diff report using logger.
func printDiffReport(l *zap.Logger, cfg sync.Config, report *sync.DiffReport) {
	s := report.Summary()

	l.Info("Diff report",
		zap.String("table", cfg.QualifiedTable()),
		zap.Int("total_records", len(report.Entries)),
		zap.Int("added", s.Added),
		zap.Int("modified", s.Modified),
		zap.Int("unchanged", s.Unchanged),
	)

	actionable := report.Actionable()
	if len(actionable) == 0 {
		return
	}

	// Show sample of changes (max 5 for logger)
	maxShow := 5
	if len(actionable) < maxShow {
		maxShow = len(actionable)
	}
	for i := 0; i < maxShow; i++ {
		entry := actionable[i]
		fields := []zap.Field{
			zap.Any("key", entry.Key),
			zap.String("kind", string(entry.Kind)),
		}
		for col, change := range entry.Changes {
			fields = append(fields, zap.Any(col, fmt.Sprintf("%v -> %v", change.Target, change.Source)))
		}
		l.Info("Sample change", fields...)
	}
	if len(actionable) > maxShow {
		l.Info("Additional changes not shown", zap.Int("count", len(actionable)-maxShow))
	}
}

// confirmApply prompts the user for confirmation or uses --yes flag.
func confirmApply(added, modified int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  About to insert %d and update %d rows. Type 'yes' to confirm: ", added, modified)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
