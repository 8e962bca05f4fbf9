package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Apply replays the report's Added and Modified entries against the target
// table inside a single transaction, preserving report order. An empty set of
// actionable entries is a successful no-op. Any row failure, including
// context cancellation, rolls back the whole batch and surfaces as an
// *ApplyError; nothing from the call persists. The executor never retries.
func (e *Engine) Apply(ctx context.Context, cfg Config, report *DiffReport) (*ApplyResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	actionable := report.Actionable()
	if len(actionable) == 0 {
		return &ApplyResult{Message: "no changes to apply"}, nil
	}

	log := e.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("table", cfg.QualifiedTable()),
	)
	log.Info("Applying changes", zap.Int("actionable", len(actionable)))

	var inserted, updated int
	err := e.store.Transaction(ctx, func(tx RecordStore) error {
		for i, entry := range actionable {
			if err := ctx.Err(); err != nil {
				// Cancel before commit means rollback, never a partial batch.
				return &ApplyError{Key: entry.Key, Err: err}
			}

			switch entry.Kind {
			case Added:
				if err := tx.InsertRow(ctx, cfg.Schema, cfg.Table, cfg.KeyTarget, entry.Key, entry.MappedValues); err != nil {
					return &ApplyError{Key: entry.Key, Err: err}
				}
				inserted++
			case Modified:
				changed := make(map[string]any, len(entry.Changes))
				for col, ch := range entry.Changes {
					changed[col] = ch.Source
				}
				if err := tx.UpdateRow(ctx, cfg.Schema, cfg.Table, cfg.KeyTarget, entry.Key, changed); err != nil {
					return &ApplyError{Key: entry.Key, Err: err}
				}
				updated++
			}
			e.reportProgress(StageApply, i+1, len(actionable))
		}
		return nil
	})
	if err != nil {
		log.Error("Sync failed, transaction rolled back", zap.Error(err))
		return nil, err
	}

	msg := fmt.Sprintf("%d inserted, %d updated", inserted, updated)
	log.Info("Sync complete", zap.Int("inserted", inserted), zap.Int("updated", updated))
	return &ApplyResult{Inserted: inserted, Updated: updated, Message: msg}, nil
}
