// Package mappings persists named column mappings in a local bbolt file.
//
// A Mapping records everything needed to repeat a sync run: the target
// table, the key column pair and the source-to-target column pairs. It also
// records the source fields and target columns it was created against, so
// Compatible can tell whether a saved mapping still fits a new spreadsheet
// or a changed table before a run starts.
package mappings
