// Package sim replays a synthetic sync plan through the progress core. It
// stands in for the real sync engine so the estimator can be exercised and
// demoed without a server.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/driftsync/driftsync/internal/client/progress"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	defaultFiles       = 200
	defaultDirs        = 10
	defaultDeletes     = 50
	defaultMaxFileSize = 8 << 20 // 8 MiB
	defaultBandwidth   = 4 << 20 // 4 MiB per tick
	defaultParallel    = 3
	defaultInterval    = time.Second
)

// Options shape the synthetic run.
type Options struct {
	Files        int           // transferred files in the plan
	Dirs         int           // created directories
	Deletes      int           // metadata-only delete operations
	MaxFileSize  uint64        // upper bound for random file sizes
	Bandwidth    uint64        // bytes moved per tick, shared by all transfers
	Parallel     int           // concurrent transfer slots
	TickInterval time.Duration // estimator tick period, nominally 1s
	Seed         int64         // plan RNG seed
}

func (o *Options) applyDefaults() {
	if o.Files <= 0 {
		o.Files = defaultFiles
	}
	if o.Dirs < 0 {
		o.Dirs = defaultDirs
	}
	if o.Deletes < 0 {
		o.Deletes = defaultDeletes
	}
	if o.MaxFileSize == 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.Bandwidth == 0 {
		o.Bandwidth = defaultBandwidth
	}
	if o.Parallel <= 0 {
		o.Parallel = defaultParallel
	}
	if o.TickInterval <= 0 {
		o.TickInterval = defaultInterval
	}
}

// transfer is one in-flight size-dependent item.
type transfer struct {
	item progress.WorkItem
	done uint64
}

// Runner drives a generated plan through a progress.Tracker at the configured
// tick interval and publishes each snapshot. All tracker calls happen on the
// Run goroutine, per the tracker's single-owner rule.
type Runner struct {
	opts     Options
	groupKey string
	tracker  *progress.Tracker
	notifier *progress.Notifier
	plan     []progress.WorkItem
}

func NewRunner(opts Options, notifier *progress.Notifier) *Runner {
	opts.applyDefaults()
	return &Runner{
		opts:     opts,
		groupKey: uuid.NewString(),
		tracker:  progress.NewTracker(),
		notifier: notifier,
		plan:     buildPlan(opts),
	}
}

// GroupKey identifies this run in published snapshots.
func (r *Runner) GroupKey() string {
	return r.groupKey
}

// Snapshot returns the tracker's current snapshot. Only valid before Run
// starts or after it returns.
func (r *Runner) Snapshot() progress.Snapshot {
	return r.tracker.Snapshot()
}

// Run executes the plan until it completes or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for _, item := range r.plan {
		r.tracker.PlanItem(item)
	}
	slog.Info("sync plan ready",
		"group", r.groupKey,
		"files", r.tracker.TotalFiles(),
		"size", humanize.Bytes(r.tracker.TotalBytes()))

	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	var (
		next     int
		inflight []*transfer
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		// fill free transfer slots; metadata-only operations finish
		// within the tick and never occupy a slot
		for len(inflight) < r.opts.Parallel && next < len(r.plan) {
			item := r.plan[next]
			next++
			if !item.SizeDependent() {
				item.Status = progress.StatusSuccess
				r.tracker.SetItemComplete(item)
				continue
			}
			inflight = append(inflight, &transfer{item: item})
		}

		// spread the tick's bandwidth across in-flight transfers
		if len(inflight) > 0 {
			per := max(r.opts.Bandwidth/uint64(len(inflight)), 1)
			kept := inflight[:0]
			for _, tr := range inflight {
				tr.done += per
				if tr.done >= tr.item.Size {
					r.tracker.SetItemProgress(tr.item, tr.item.Size)
					tr.item.Status = progress.StatusSuccess
					r.tracker.SetItemComplete(tr.item)
					continue
				}
				r.tracker.SetItemProgress(tr.item, tr.done)
				kept = append(kept, tr)
			}
			inflight = kept
		}

		r.tracker.Tick()
		r.notifier.Publish(r.groupKey, r.tracker.Snapshot())

		if next >= len(r.plan) && len(inflight) == 0 {
			break
		}
	}

	snap := r.tracker.Snapshot()
	slog.Info("sync run complete",
		"group", r.groupKey,
		"files", snap.CompletedFiles,
		"size", humanize.Bytes(snap.CompletedBytes))
	return nil
}

// buildPlan generates a deterministic mix of directory creates, file
// transfers and deletes for the given seed.
func buildPlan(opts Options) []progress.WorkItem {
	rng := rand.New(rand.NewSource(opts.Seed))
	plan := make([]progress.WorkItem, 0, opts.Dirs+opts.Files+opts.Deletes)

	for i := 0; i < opts.Dirs; i++ {
		plan = append(plan, progress.WorkItem{
			Path:        fmt.Sprintf("dir%03d", i),
			IsDirectory: true,
			Op:          progress.OpUpload,
		})
	}
	for i := 0; i < opts.Files; i++ {
		op := progress.OpUpload
		if rng.Intn(2) == 0 {
			op = progress.OpDownload
		}
		plan = append(plan, progress.WorkItem{
			Path: fmt.Sprintf("dir%03d/file%05d.bin", i%max(opts.Dirs, 1), i),
			Size: 1 + uint64(rng.Int63n(int64(opts.MaxFileSize))),
			Op:   op,
		})
	}
	for i := 0; i < opts.Deletes; i++ {
		plan = append(plan, progress.WorkItem{
			Path: fmt.Sprintf("stale/file%05d.bin", i),
			Op:   progress.OpDelete,
		})
	}
	return plan
}
