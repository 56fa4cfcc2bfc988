package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/installment-engine/api"
	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

func newTestScheduler(t *testing.T) (*api.SweepScheduler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sweeper := installment.NewSweep(store, store, time.UTC)
	return api.NewSweepScheduler(store, sweeper), store
}

func TestScheduler_RecordsCompletedRun(t *testing.T) {
	scheduler, store := newTestScheduler(t)
	scheduler.RunNow()

	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	require.NotNil(t, runs[0].CompletedAt)

	done, err := store.IsSweepComplete(context.Background(), installment.Today(time.UTC))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestScheduler_SkipsDayAlreadySwept(t *testing.T) {
	scheduler, store := newTestScheduler(t)
	scheduler.RunNow()
	scheduler.RunNow()

	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "a completed day must not be swept twice")
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	scheduler, store := newTestScheduler(t)
	scheduler.Enabled = false
	scheduler.Start()
	scheduler.Stop()

	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
