package cmd

import (
	"encoding/json"
	"fmt"

	"datasync/core/config"
	"datasync/core/database"
	"datasync/core/mappings"

	"github.com/spf13/cobra"
)

var (
	// Flags for mappings save / compatible
	mapSchema string
	mapTable  string
	mapKeySrc string
	mapKeyDst string
	mapPairs  []string
	mapFile   string
	mapSheet  string
	mapWithDB bool
)

// mappingsCmd is the parent command for all mapping operations.
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Manage saved column mappings",
	Long: `Manage the saved column mappings used by the sync command.

A mapping records the target table, the key column pair and the
source-to-target column pairs so a sync run can be repeated without
re-entering flags.`,
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved mapping names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *mappings.Store) error {
			names, err := store.ListNames()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no mappings saved")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

var mappingsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one saved mapping as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *mappings.Store) error {
			m, err := store.Load(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		})
	},
}

var mappingsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a mapping from flags",
	Long: `Save a mapping under a name.

With --file the spreadsheet's header is recorded as the mapping's required
source fields; with --with-db the target table's columns are recorded as its
required target columns. Both feed the compatible check.`,
	Args: cobra.ExactArgs(1),
	RunE: runMappingsSave,
}

var mappingsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *mappings.Store) error {
			deleted, err := store.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("mapping %q not found", args[0])
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		})
	},
}

var mappingsCompatibleCmd = &cobra.Command{
	Use:   "compatible [name]",
	Short: "Check which saved mappings fit a spreadsheet and the target table",
	Long: `Check mapping compatibility against a spreadsheet and the target table.

With a name, checks that one mapping. Without a name, lists every saved
mapping compatible with the table given by --table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMappingsCompatible,
}

func init() {
	mappingsSaveCmd.Flags().StringVar(&mapSchema, "schema", "", "Target schema")
	mappingsSaveCmd.Flags().StringVar(&mapTable, "table", "", "Target table")
	mappingsSaveCmd.Flags().StringVar(&mapKeySrc, "key-source", "", "Source field holding the record key")
	mappingsSaveCmd.Flags().StringVar(&mapKeyDst, "key-target", "", "Target column holding the record key")
	mappingsSaveCmd.Flags().StringArrayVar(&mapPairs, "map", nil, "Column pair source=target (repeatable)")
	mappingsSaveCmd.Flags().StringVar(&mapFile, "file", "", "Spreadsheet to record required source fields from")
	mappingsSaveCmd.Flags().StringVar(&mapSheet, "sheet", "", "Worksheet name (default: first sheet)")
	mappingsSaveCmd.Flags().BoolVar(&mapWithDB, "with-db", false, "Record the target table's columns from the database")
	_ = mappingsSaveCmd.MarkFlagRequired("table")
	_ = mappingsSaveCmd.MarkFlagRequired("key-source")
	_ = mappingsSaveCmd.MarkFlagRequired("key-target")

	mappingsCompatibleCmd.Flags().StringVar(&mapFile, "file", "", "Spreadsheet to check against")
	mappingsCompatibleCmd.Flags().StringVar(&mapSheet, "sheet", "", "Worksheet name (default: first sheet)")
	mappingsCompatibleCmd.Flags().StringVar(&mapSchema, "schema", "", "Target schema to check against")
	mappingsCompatibleCmd.Flags().StringVar(&mapTable, "table", "", "Target table to check against")
	_ = mappingsCompatibleCmd.MarkFlagRequired("file")

	mappingsCmd.AddCommand(mappingsListCmd)
	mappingsCmd.AddCommand(mappingsShowCmd)
	mappingsCmd.AddCommand(mappingsSaveCmd)
	mappingsCmd.AddCommand(mappingsDeleteCmd)
	mappingsCmd.AddCommand(mappingsCompatibleCmd)
	RootCmd.AddCommand(mappingsCmd)
}

// withStore opens the configured mappings store around fn.
func withStore(fn func(*mappings.Store) error) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := mappings.Open(cfg.Mappings.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func runMappingsSave(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pairs, err := parseColumnPairs(mapPairs)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("at least one --map pair is required")
	}

	m := mappings.Mapping{
		Name:      args[0],
		Schema:    mapSchema,
		Table:     mapTable,
		KeySource: mapKeySrc,
		KeyTarget: mapKeyDst,
	}
	for _, p := range pairs {
		m.Columns = append(m.Columns, mappings.ColumnPair{Source: p.Source, Target: p.Target})
	}

	if mapFile != "" {
		src, err := loadSource(mapFile, mapSheet)
		if err != nil {
			return err
		}
		m.RequiredSourceFields = src.FieldNames()
	}

	if mapWithDB {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		columns, err := database.ListColumns(db, mapSchema, mapTable)
		if err != nil {
			return err
		}
		for _, col := range columns {
			m.RequiredTargetColumns = append(m.RequiredTargetColumns, col.Name)
		}
	}

	store, err := mappings.Open(cfg.Mappings.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(m); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", m.Name)
	return nil
}

func runMappingsCompatible(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := mappings.Open(cfg.Mappings.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := loadSource(mapFile, mapSheet)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		m, err := store.Load(args[0])
		if err != nil {
			return err
		}
		// The target identity comes from the flags; without --table the
		// mapping's own identity is used, so only field and column
		// availability is checked.
		schema, table := mapSchema, mapTable
		if table == "" {
			schema, table = m.Schema, m.Table
		}
		targetColumns, err := liveColumns(cfg, schema, table, m.RequiredTargetColumns)
		if err != nil {
			return err
		}
		if !m.Compatible(schema, table, src.FieldNames(), targetColumns) {
			return fmt.Errorf("mapping %q is not compatible with %s", m.Name, mapFile)
		}
		fmt.Printf("mapping %q is compatible with %s\n", m.Name, mapFile)
		return nil
	}

	if mapTable == "" {
		return fmt.Errorf("--table is required when no mapping name is given")
	}
	targetColumns, err := liveColumns(cfg, mapSchema, mapTable, nil)
	if err != nil {
		return err
	}
	names, err := store.CompatibleNames(mapSchema, mapTable, src.FieldNames(), targetColumns)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no compatible mappings")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// liveColumns reads the table's column names from the database, falling back
// to the recorded set when no database is reachable.
func liveColumns(cfg *config.Config, schema, table string, recorded []string) ([]string, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return recorded, nil
	}
	columns, err := database.ListColumns(db, schema, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names, nil
}
