// Package database manages the target database connection and catalog
// inspection.
//
// Connect opens a pooled GORM handle for the configured driver (postgres,
// mysql or sqlite) and verifies it with a ping. The inspector functions read
// the catalog: ListTables and ListColumns feed mapping construction and
// compatibility checks, PrimaryKeyColumns backs the key-column suggestion in
// the CLI.
//
// The sync engine itself never opens connections; it receives the handle
// produced here.
package database
