package sync

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by the record store when no database handle is
// available. It is never retried automatically.
var ErrNotConnected = errors.New("not connected to database")

// ConfigError reports a sync configuration the engine refuses to run with.
// Diff generation fails before any database access when the config is bad.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid sync config: " + e.Reason
}

// QueryError wraps a failed record store operation: malformed identifiers,
// an empty update column set, or an error from the underlying database.
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ApplyError identifies the entry that aborted an apply run. The whole
// transaction is rolled back before this is returned.
type ApplyError struct {
	Key any
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply failed for key %v: %v", e.Key, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
