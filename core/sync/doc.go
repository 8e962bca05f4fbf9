// Package sync reconciles a tabular dataset (spreadsheet rows) against a
// relational table and applies the required inserts and updates.
//
// The flow has two phases that share one Config:
//
//  1. Diff: the engine fetches every target row keyed by the configured key
//     column in a single query, then classifies each source row as ADDED,
//     MODIFIED or UNCHANGED in source order. Rows without a key value are
//     skipped entirely.
//
//  2. Apply: the actionable entries of a diff report are replayed against the
//     target table inside one transaction. The apply is all-or-nothing: any
//     row failure rolls back the whole batch.
//
// # Value comparison
//
// Source and target systems represent the same logical value with different
// native types (spreadsheet text vs. numeric columns), so equality is decided
// on trimmed canonical string forms. See ValuesEqual for the exact policy and
// its known limitations.
//
// # Usage
//
//	engine := sync.New(sync.NewStore(db), sync.WithLogger(log))
//	report, err := engine.GenerateDiff(ctx, cfg, source)
//	// review report.Summary() ...
//	result, err := engine.Apply(ctx, cfg, report)
//
// Progress reporting is observability-only: the engine works identically with
// no ProgressFunc installed.
package sync
