package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine drives diff generation and apply for one sync run at a time. It is
// not safe for concurrent runs sharing one connection; callers issue diff and
// apply sequentially from a single goroutine.
type Engine struct {
	store    RecordStore
	log      *zap.Logger
	progress ProgressFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger installs a structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithProgress installs a progress callback. Progress is observability only;
// the engine behaves identically without it.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates an engine on top of the given record store.
func New(store RecordStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateDiff fetches the target rows once and classifies every source
// record against them, in source order. Records whose key value is nil are
// excluded from the report entirely. Store errors propagate unchanged and no
// partial report is returned.
func (e *Engine) GenerateDiff(ctx context.Context, cfg Config, src Source) (*DiffReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := e.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("table", cfg.QualifiedTable()),
	)

	log.Info("Fetching target records", zap.Int("columns", len(cfg.Columns)))
	targets, err := e.store.FetchKeyedRows(ctx, cfg.Schema, cfg.Table, cfg.KeyTarget, cfg.TargetColumns())
	if err != nil {
		return nil, err
	}

	rows := src.Rows()
	total := len(rows)
	log.Info("Comparing records",
		zap.Int("source_rows", total),
		zap.Int("target_rows", len(targets)),
	)

	report := &DiffReport{
		Entries:     make([]DiffEntry, 0, total),
		GeneratedAt: time.Now(),
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if keyValue := row[cfg.KeySource]; keyValue != nil {
			report.Entries = append(report.Entries, e.classify(cfg, targets, keyValue, row))
		}
		e.reportProgress(StageCompare, i+1, total)
	}

	summary := report.Summary()
	log.Info("Diff complete",
		zap.Int("added", summary.Added),
		zap.Int("modified", summary.Modified),
		zap.Int("unchanged", summary.Unchanged),
	)
	return report, nil
}

// classify builds the diff entry for a single keyed source record.
func (e *Engine) classify(cfg Config, targets map[string]TargetRecord, keyValue any, row Row) DiffEntry {
	// Project the source record onto target columns. A field missing from the
	// source row maps to nil.
	mapped := make(map[string]any, len(cfg.Columns))
	for _, cm := range cfg.Columns {
		mapped[cm.Target] = row[cm.Source]
	}

	target, exists := targets[canonical(keyValue)]
	if !exists {
		return DiffEntry{Key: keyValue, Kind: Added, MappedValues: mapped}
	}

	changes := make(map[string]ValueChange)
	for _, cm := range cfg.Columns {
		sv := mapped[cm.Target]
		tv := target.Values[cm.Target]
		if !ValuesEqual(sv, tv) {
			changes[cm.Target] = ValueChange{Source: sv, Target: tv}
		}
	}
	if len(changes) == 0 {
		return DiffEntry{Key: keyValue, Kind: Unchanged}
	}
	return DiffEntry{Key: keyValue, Kind: Modified, MappedValues: mapped, Changes: changes}
}

func (e *Engine) reportProgress(stage Stage, current, total int) {
	if e.progress != nil {
		e.progress(stage, current, total)
	}
}
