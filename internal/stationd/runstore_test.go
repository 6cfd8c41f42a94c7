package stationd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueworks/station-sim/pkg/config"
	"github.com/queueworks/station-sim/pkg/models"
)

func storeConfig() config.Config {
	return config.Config{
		Model:              models.ModelMM1,
		ArrivalRatePerHour: 12,
		MeanServiceMinutes: 2,
		Servers:            1,
		OperatingHours:     8,
	}
}

func TestRunStoreCreateDefaults(t *testing.T) {
	store := NewRunStore()
	cfg := storeConfig()

	rec, err := store.Create("", cfg, 0, 0, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Run.ID)
	assert.Equal(t, models.RunStatusPending, rec.Run.Status)
	assert.NotZero(t, rec.Run.CreatedAtUnixMs)
	assert.Equal(t, 1.0, rec.Speed)
	assert.Equal(t, cfg.DayMinutes(), rec.HorizonMinutes)
	assert.Equal(t, int64(42), rec.Seed)

	got, ok := store.Get(rec.Run.ID)
	require.True(t, ok)
	assert.Same(t, rec, got)
}

func TestRunStoreRejectsDuplicateID(t *testing.T) {
	store := NewRunStore()

	_, err := store.Create("run-a", storeConfig(), 1, 60, 0)
	require.NoError(t, err)
	_, err = store.Create("run-a", storeConfig(), 1, 60, 0)
	assert.Error(t, err)
}

func TestRunStoreSetStatusStampsTimes(t *testing.T) {
	store := NewRunStore()
	rec, err := store.Create("run-b", storeConfig(), 1, 60, 0)
	require.NoError(t, err)
	assert.Zero(t, rec.Run.StartedAtUnixMs)

	rec, err = store.SetStatus("run-b", models.RunStatusRunning, "")
	require.NoError(t, err)
	started := rec.Run.StartedAtUnixMs
	assert.NotZero(t, started)
	assert.Zero(t, rec.Run.EndedAtUnixMs)

	// A second running transition must not restamp the start time.
	rec, err = store.SetStatus("run-b", models.RunStatusRunning, "")
	require.NoError(t, err)
	assert.Equal(t, started, rec.Run.StartedAtUnixMs)

	rec, err = store.SetStatus("run-b", models.RunStatusFailed, "engine blew up")
	require.NoError(t, err)
	assert.NotZero(t, rec.Run.EndedAtUnixMs)
	assert.Equal(t, "engine blew up", rec.Run.Error)

	_, err = store.SetStatus("missing", models.RunStatusRunning, "")
	assert.Error(t, err)
}

func TestRunStoreSnapshotRoundTrip(t *testing.T) {
	store := NewRunStore()
	_, err := store.Create("run-c", storeConfig(), 1, 60, 0)
	require.NoError(t, err)

	_, ok := store.Snapshot("run-c")
	assert.False(t, ok, "fresh run should have no snapshot")

	require.NoError(t, store.SetSnapshot("run-c", models.Snapshot{SimTime: 12.5, Served: 3}))
	snap, ok := store.Snapshot("run-c")
	require.True(t, ok)
	assert.Equal(t, 12.5, snap.SimTime)
	assert.Equal(t, int64(3), snap.Served)

	assert.Error(t, store.SetSnapshot("missing", models.Snapshot{}))
}

func TestRunStoreDeleteAndList(t *testing.T) {
	store := NewRunStore()
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Create(id, storeConfig(), 1, 60, 0)
		require.NoError(t, err)
	}

	assert.Len(t, store.List(0), 3)
	assert.Len(t, store.List(2), 2)

	assert.True(t, store.Delete("b"))
	assert.False(t, store.Delete("b"))
	_, ok := store.Get("b")
	assert.False(t, ok)
}
