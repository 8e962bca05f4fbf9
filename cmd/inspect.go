package cmd

import (
	"fmt"

	"datasync/core/config"
	"datasync/core/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var inspectSchema string

// inspectCmd is the parent command for catalog inspection.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the target database catalog",
	Long: `Inspect the target database: list tables, list the columns of a table,
or show a table's primary key as the suggested key column for a mapping.`,
}

var inspectTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the base tables of the target database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			tables, err := database.ListTables(db)
			if err != nil {
				return err
			}
			for _, t := range tables {
				if t.Schema == "" {
					fmt.Println(t.Name)
				} else {
					fmt.Printf("%s.%s\n", t.Schema, t.Name)
				}
			}
			return nil
		})
	},
}

var inspectColumnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "List the columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			columns, err := database.ListColumns(db, inspectSchema, args[0])
			if err != nil {
				return err
			}
			for _, col := range columns {
				nullable := "NOT NULL"
				if col.Nullable {
					nullable = "NULL"
				}
				defaulted := ""
				if col.HasDefault {
					defaulted = " DEFAULT"
				}
				fmt.Printf("%s\t%s\t%s%s\n", col.Name, col.DataType, nullable, defaulted)
			}
			return nil
		})
	},
}

var inspectKeyCmd = &cobra.Command{
	Use:   "key <table>",
	Short: "Show a table's primary key as the suggested key column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			pk, err := database.PrimaryKeyColumns(db, inspectSchema, args[0])
			if err != nil {
				return err
			}
			if len(pk) == 0 {
				return fmt.Errorf("table %s has no primary key", args[0])
			}
			for _, col := range pk {
				fmt.Println(col)
			}
			return nil
		})
	},
}

func init() {
	inspectCmd.PersistentFlags().StringVar(&inspectSchema, "schema", "", "Schema of the table")

	inspectCmd.AddCommand(inspectTablesCmd)
	inspectCmd.AddCommand(inspectColumnsCmd)
	inspectCmd.AddCommand(inspectKeyCmd)
	RootCmd.AddCommand(inspectCmd)
}

// withDB connects to the configured database around fn.
func withDB(fn func(*gorm.DB) error) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return fn(db)
}
