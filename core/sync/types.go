package sync

import "time"

// ChangeKind classifies the diff outcome for a single source record.
type ChangeKind string

const (
	// Unchanged means the target row exists and every mapped column matches.
	Unchanged ChangeKind = "UNCHANGED"
	// Added means no target row exists for the record's key.
	Added ChangeKind = "ADDED"
	// Modified means the target row exists and at least one column differs.
	Modified ChangeKind = "MODIFIED"
)

// ColumnMapping pairs a source field with the target column it feeds.
type ColumnMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Config describes one sync run: where the target rows live, which columns
// act as the record key on each side, and how source fields map onto target
// columns. The mapping order is preserved throughout diff generation.
type Config struct {
	// Schema is the target schema name. May be empty for single-schema
	// databases such as SQLite.
	Schema string `json:"schema"`

	// Table is the target table name.
	Table string `json:"table"`

	// KeySource is the source field holding the record key.
	KeySource string `json:"key_source"`

	// KeyTarget is the target column holding the record key.
	KeyTarget string `json:"key_target"`

	// Columns maps source fields to target columns. At least one entry is
	// required and names must be unique on both sides.
	Columns []ColumnMapping `json:"columns"`
}

// QualifiedTable returns the schema-qualified table name for display.
func (c Config) QualifiedTable() string {
	if c.Schema == "" {
		return c.Table
	}
	return c.Schema + "." + c.Table
}

// TargetColumns returns the target side of the column mapping, in order.
func (c Config) TargetColumns() []string {
	cols := make([]string, len(c.Columns))
	for i, cm := range c.Columns {
		cols[i] = cm.Target
	}
	return cols
}

// Validate checks that the configuration is runnable. It returns a
// *ConfigError describing the first problem found.
func (c Config) Validate() error {
	if c.Table == "" {
		return &ConfigError{Reason: "target table is not set"}
	}
	if c.KeySource == "" {
		return &ConfigError{Reason: "source key field is not set"}
	}
	if c.KeyTarget == "" {
		return &ConfigError{Reason: "target key column is not set"}
	}
	if len(c.Columns) == 0 {
		return &ConfigError{Reason: "column mapping is empty"}
	}

	sources := make(map[string]struct{}, len(c.Columns))
	targets := make(map[string]struct{}, len(c.Columns))
	for _, cm := range c.Columns {
		if cm.Source == "" || cm.Target == "" {
			return &ConfigError{Reason: "column mapping contains an empty name"}
		}
		if _, dup := sources[cm.Source]; dup {
			return &ConfigError{Reason: "duplicate source field " + cm.Source + " in column mapping"}
		}
		if _, dup := targets[cm.Target]; dup {
			return &ConfigError{Reason: "duplicate target column " + cm.Target + " in column mapping"}
		}
		sources[cm.Source] = struct{}{}
		targets[cm.Target] = struct{}{}
	}
	return nil
}

// ValueChange holds both sides of a differing column.
type ValueChange struct {
	Source any `json:"source"`
	Target any `json:"target"`
}

// DiffEntry is the classified outcome for one source record.
type DiffEntry struct {
	// Key is the record's key value as read from the source. Never nil.
	Key any `json:"key"`

	// Kind is the classification.
	Kind ChangeKind `json:"kind"`

	// MappedValues maps target columns to source-derived values. Populated
	// for Added and Modified entries, empty for Unchanged.
	MappedValues map[string]any `json:"mapped_values,omitempty"`

	// Changes maps differing target columns to their source/target value
	// pair. Populated only for Modified entries and never empty there.
	Changes map[string]ValueChange `json:"changes,omitempty"`
}

// DiffReport is the ordered classification of every keyed source record.
// Order equals source iteration order, not key order.
type DiffReport struct {
	Entries     []DiffEntry `json:"entries"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Summary recounts the report's entries by kind.
func (r *DiffReport) Summary() ChangeSummary {
	var s ChangeSummary
	for _, e := range r.Entries {
		switch e.Kind {
		case Added:
			s.Added++
		case Modified:
			s.Modified++
		default:
			s.Unchanged++
		}
	}
	return s
}

// Actionable returns the Added and Modified entries in report order.
func (r *DiffReport) Actionable() []DiffEntry {
	out := make([]DiffEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Kind == Added || e.Kind == Modified {
			out = append(out, e)
		}
	}
	return out
}

// ChangeSummary aggregates entry counts for a diff report.
type ChangeSummary struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// TargetRecord is one row fetched from the target table.
type TargetRecord struct {
	// Key is the raw key value as stored in the target.
	Key any

	// Values maps target column names to their stored values.
	Values map[string]any
}

// ApplyResult reports the outcome of a successful apply run.
type ApplyResult struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Message  string `json:"message"`
}

// Stage identifies the phase a progress event belongs to.
type Stage string

const (
	// StageCompare covers per-row classification during diff generation.
	StageCompare Stage = "compare"
	// StageApply covers per-row execution during apply.
	StageApply Stage = "apply"
)

// ProgressFunc receives progress events. Current counts processed records,
// total is the number of records in the stage. Callbacks are invoked
// synchronously from the engine's goroutine and must not block.
type ProgressFunc func(stage Stage, current, total int)
