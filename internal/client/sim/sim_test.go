package sim

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/driftsync/driftsync/internal/client/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Files:        10,
		Dirs:         2,
		Deletes:      5,
		MaxFileSize:  1 << 16,
		Bandwidth:    1 << 18,
		Parallel:     2,
		TickInterval: time.Millisecond,
		Seed:         42,
	}
}

func TestBuildPlan_Deterministic(t *testing.T) {
	opts := testOptions()
	opts.applyDefaults()

	a := buildPlan(opts)
	b := buildPlan(opts)
	require.Equal(t, a, b)
	assert.Len(t, a, opts.Dirs+opts.Files+opts.Deletes)

	var files, dirs, deletes int
	for _, item := range a {
		switch {
		case item.IsDirectory:
			dirs++
			assert.False(t, item.SizeDependent())
		case item.Op == progress.OpDelete:
			deletes++
			assert.Zero(t, item.Size)
		default:
			files++
			assert.Positive(t, item.Size)
			assert.True(t, item.SizeDependent())
		}
	}
	assert.Equal(t, opts.Files, files)
	assert.Equal(t, opts.Dirs, dirs)
	assert.Equal(t, opts.Deletes, deletes)
}

func TestRunner_RunsPlanToCompletion(t *testing.T) {
	notifier := progress.NewNotifier()
	defer notifier.Close()

	published := 0
	notifier.Subscribe(func(group string, snap progress.Snapshot) {
		published++
		assert.NotEmpty(t, group)
		assert.LessOrEqual(t, snap.CompletedFiles, snap.TotalFiles)
		assert.LessOrEqual(t, snap.CompletedBytes, snap.TotalBytes)
	})

	r := NewRunner(testOptions(), notifier)
	require.NotEmpty(t, r.GroupKey())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	snap := r.Snapshot()
	assert.Equal(t, snap.TotalFiles, snap.CompletedFiles)
	assert.Equal(t, snap.TotalBytes, snap.CompletedBytes)
	assert.Positive(t, published)
}

func TestRunner_CancelStopsRun(t *testing.T) {
	notifier := progress.NewNotifier()
	defer notifier.Close()

	opts := testOptions()
	opts.Files = 10_000
	opts.Bandwidth = 1 // effectively stalled
	r := NewRunner(opts, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestLogObserver_HandlesSnapshotShapes(t *testing.T) {
	obs := LogObserver(slog.Default())

	obs("run-1", progress.Snapshot{TotalFiles: 10, TotalBytes: 1 << 20})
	obs("run-1", progress.Snapshot{
		TotalFiles:        10,
		CompletedFiles:    4,
		EstimatedEtaMs:    90_000,
		LastCompletedItem: &progress.WorkItem{Path: "a.txt", Op: progress.OpUpload},
	})
}
