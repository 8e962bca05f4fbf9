package sync_test

import (
	"context"
	"testing"

	"datasync/core/sync"

	"github.com/stretchr/testify/assert"
)

func reportOf(entries ...sync.DiffEntry) *sync.DiffReport {
	return &sync.DiffReport{Entries: entries}
}

func TestApplyNoChanges(t *testing.T) {
	store := &fakeStore{}
	report := reportOf(
		sync.DiffEntry{Key: "A-1", Kind: sync.Unchanged},
		sync.DiffEntry{Key: "A-2", Kind: sync.Unchanged},
	)

	result, err := sync.New(store).Apply(context.Background(), testConfig(), report)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, "no changes to apply", result.Message)
	assert.False(t, store.committed, "no-op must not open a transaction")
}

func TestApplyInsertsAndUpdates(t *testing.T) {
	store := &fakeStore{}
	report := reportOf(
		sync.DiffEntry{Key: "A-1", Kind: sync.Unchanged},
		sync.DiffEntry{
			Key:          "A-2",
			Kind:         sync.Modified,
			MappedValues: map[string]any{"name": "Chair", "location": "Warehouse"},
			Changes: map[string]sync.ValueChange{
				"location": {Source: "Warehouse", Target: "HQ"},
			},
		},
		sync.DiffEntry{
			Key:          "A-3",
			Kind:         sync.Added,
			MappedValues: map[string]any{"name": "Lamp", "location": "HQ"},
		},
	)

	result, err := sync.New(store).Apply(context.Background(), testConfig(), report)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "1 inserted, 1 updated", result.Message)
	assert.True(t, store.committed)

	assert.Len(t, store.inserts, 1)
	assert.Equal(t, "A-3", store.inserts[0].key)
	assert.Equal(t, map[string]any{"name": "Lamp", "location": "HQ"}, store.inserts[0].values)

	assert.Len(t, store.updates, 1)
	assert.Equal(t, "A-2", store.updates[0].key)
	assert.Equal(t, map[string]any{"location": "Warehouse"}, store.updates[0].values,
		"update carries only the changed columns")
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	store := &fakeStore{failKey: "A-3"}
	report := reportOf(
		sync.DiffEntry{Key: "A-2", Kind: sync.Added, MappedValues: map[string]any{"name": "Chair"}},
		sync.DiffEntry{Key: "A-3", Kind: sync.Added, MappedValues: map[string]any{"name": "Lamp"}},
	)

	result, err := sync.New(store).Apply(context.Background(), testConfig(), report)
	assert.Nil(t, result)

	var applyErr *sync.ApplyError
	assert.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "A-3", applyErr.Key)

	assert.True(t, store.rolledBack)
	assert.Empty(t, store.inserts, "the first insert must not survive the rollback")
}

func TestApplyCancelledMidRun(t *testing.T) {
	store := &fakeStore{}
	report := reportOf(
		sync.DiffEntry{Key: "A-1", Kind: sync.Added, MappedValues: map[string]any{"name": "Desk"}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sync.New(store).Apply(ctx, testConfig(), report)
	var applyErr *sync.ApplyError
	assert.ErrorAs(t, err, &applyErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, store.rolledBack)
}

func TestApplyInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Table = ""

	_, err := sync.New(&fakeStore{}).Apply(context.Background(), cfg, reportOf())
	var cfgErr *sync.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestApplyProgress(t *testing.T) {
	store := &fakeStore{}
	report := reportOf(
		sync.DiffEntry{Key: "A-1", Kind: sync.Added, MappedValues: map[string]any{"name": "Desk"}},
		sync.DiffEntry{Key: "A-2", Kind: sync.Unchanged},
		sync.DiffEntry{Key: "A-3", Kind: sync.Modified,
			MappedValues: map[string]any{"name": "Lamp"},
			Changes:      map[string]sync.ValueChange{"name": {Source: "Lamp", Target: "Old"}},
		},
	)

	var events []int
	engine := sync.New(store, sync.WithProgress(func(stage sync.Stage, current, total int) {
		assert.Equal(t, sync.StageApply, stage)
		assert.Equal(t, 2, total, "progress counts actionable entries only")
		events = append(events, current)
	}))

	_, err := engine.Apply(context.Background(), testConfig(), report)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, events)
}
