// Package api exposes the sync tool over HTTP.
//
// It serves saved mappings, catalog inspection for mapping construction, and
// a read-only diff preview. Applying changes stays with the CLI, where the
// confirmation step lives.
package api
