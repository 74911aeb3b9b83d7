// Package progress is the estimation core of the sync client: it folds the
// engine's per-item lifecycle events into run totals, smooths throughput into
// a stable rate, and produces bandwidth/ETA estimates once per second.
package progress

import (
	"log/slog"
)

// progressItem pairs an in-flight work item with its per-item byte estimator.
type progressItem struct {
	item WorkItem
	est  *RateEstimator
}

// Snapshot captures the state of a sync run for observers.
type Snapshot struct {
	TotalFiles         uint64    `json:"totalFiles"`
	CompletedFiles     uint64    `json:"completedFiles"`
	TotalBytes         uint64    `json:"totalBytes"`
	CompletedBytes     uint64    `json:"completedBytes"`
	CurrentFileIndex   uint64    `json:"currentFileIndex"`
	EstimatedBandwidth float64   `json:"estimatedBandwidthBytesPerSec"`
	EstimatedEtaMs     uint64    `json:"estimatedEtaMs"`
	LastCompletedItem  *WorkItem `json:"lastCompletedItem,omitempty"`
}

// Tracker is the run-level source of truth for sync progress and ETA.
//
// A Tracker is owned by a single goroutine: the run's event loop calls
// PlanItem/SetItemProgress/SetItemComplete as the engine reports, and drives
// Tick at 1 Hz. It performs no locking and is not reentrant; callers on other
// goroutines must marshal onto the owning loop first.
type Tracker struct {
	fileProgress *RateEstimator
	sizeProgress *RateEstimator

	currentItems map[string]*progressItem

	// Bytes of size-dependent items that already finished; partial bytes of
	// in-flight items are added on top when recomputing the byte counter.
	completedJobsSize uint64

	lastCompleted *WorkItem

	maxFilesPerSecond float64
	maxBytesPerSecond float64
}

func NewTracker() *Tracker {
	return &Tracker{
		fileProgress: NewRateEstimator(),
		sizeProgress: NewRateEstimator(),
		currentItems: make(map[string]*progressItem),
	}
}

// PlanItem folds one planned operation into the run totals. Files always
// count toward the file total; directories only when the operation actually
// creates or removes something. Only size-dependent items contribute to the
// byte total.
func (t *Tracker) PlanItem(item WorkItem) {
	if !item.IsDirectory {
		t.fileProgress.AddTotal(1)
		if item.SizeDependent() {
			t.sizeProgress.AddTotal(item.Size)
		}
	} else if item.Op != OpNone {
		t.fileProgress.AddTotal(1)
	}
}

// SetItemProgress records partial byte progress for an in-flight item,
// creating its per-item estimator on first report.
func (t *Tracker) SetItemProgress(item WorkItem, completedBytes uint64) {
	pi, ok := t.currentItems[item.Path]
	if !ok {
		pi = &progressItem{est: NewRateEstimator()}
		t.currentItems[item.Path] = pi
	}
	pi.item = item
	pi.est.SetTotal(item.Size)
	pi.est.SetCompleted(completedBytes)
	t.recomputeCompletedSize()

	// An item making fresh progress means there is no longer a single
	// well-defined "most recently completed" item.
	t.lastCompleted = nil
}

// SetItemComplete removes the item from the in-flight set and folds its full
// contribution into the run-level completed counters. The item is retained as
// the last-completed item for display, replacing any previous one.
func (t *Tracker) SetItemComplete(item WorkItem) {
	delete(t.currentItems, item.Path)

	affected := item.AffectedItems
	if affected == 0 {
		affected = 1
	}
	completed := t.fileProgress.Completed() + affected
	if completed > t.fileProgress.Total() {
		// Completion for an item that was never planned. Tolerated; the
		// counter clamps to the stale total.
		slog.Warn("progress: completion exceeds planned total",
			"path", item.Path,
			"completed", completed,
			"total", t.fileProgress.Total())
	}
	t.fileProgress.SetCompleted(completed)

	if item.SizeDependent() {
		t.completedJobsSize += item.Size
	}
	t.recomputeCompletedSize()

	last := item
	t.lastCompleted = &last
}

// Tick advances the smoothed rates and the observed peaks. Driven by an
// external 1-second timer while the run is active.
func (t *Tracker) Tick() {
	t.sizeProgress.Tick()
	t.fileProgress.Tick()

	for _, pi := range t.currentItems {
		pi.est.Tick()
	}

	t.maxFilesPerSecond = max(t.maxFilesPerSecond, t.fileProgress.Rate())
	t.maxBytesPerSecond = max(t.maxBytesPerSecond, t.sizeProgress.Rate())
}

// TotalProgress returns the blended run-level estimate.
//
// File and byte rates are modeled independently, which goes wrong at the
// extremes: one huge transfer makes files/sec useless, and a burst of small
// deletes or renames craters bytes/sec. When file churn runs near its
// observed peak while byte throughput looks abnormally depressed, the byte
// ETA is blended toward an optimistic estimate that assumes the best rates
// seen so far resume.
func (t *Tracker) TotalProgress() Estimates {
	file := t.fileProgress.Estimate()
	if t.sizeProgress.Total() == 0 {
		// Pure delete/rename runs have no byte budget at all.
		return file
	}

	size := t.sizeProgress.Estimate()
	if t.maxFilesPerSecond == 0 || t.maxBytesPerSecond == 0 {
		// No peak observed yet for one of the rates; the optimistic terms
		// cannot be computed without dividing by zero.
		return size
	}

	optimisticEta := float64(t.fileProgress.Remaining())/t.maxFilesPerSecond*1000.0 +
		float64(t.sizeProgress.Remaining())/t.maxBytesPerSecond*1000.0

	// 0 below half the peak file rate, 1 above 80% of it.
	fps := t.fileProgress.Rate()
	nearMaxFps := clamp01((fps - 0.5*t.maxFilesPerSecond) / (0.3 * t.maxFilesPerSecond))

	// 1 below 1% of the peak byte rate, 0 above 10% of it.
	trans := t.sizeProgress.Rate()
	slowTransfer := 1.0 - clamp01((trans-0.01*t.maxBytesPerSecond)/(0.09*t.maxBytesPerSecond))

	beOptimistic := nearMaxFps * slowTransfer
	size.EstimatedEtaMs = uint64((1.0-beOptimistic)*float64(size.EstimatedEtaMs) +
		beOptimistic*optimisticEta)
	return size
}

// ItemProgress returns the bandwidth/ETA estimate for one in-flight item.
func (t *Tracker) ItemProgress(path string) (Estimates, bool) {
	pi, ok := t.currentItems[path]
	if !ok {
		return Estimates{}, false
	}
	return pi.est.Estimate(), true
}

// Snapshot returns the current totals and the blended estimate. The reported
// bandwidth is always the byte estimator's smoothed rate.
func (t *Tracker) Snapshot() Snapshot {
	est := t.TotalProgress()
	snap := Snapshot{
		TotalFiles:         t.TotalFiles(),
		CompletedFiles:     t.CompletedFiles(),
		TotalBytes:         t.TotalBytes(),
		CompletedBytes:     t.CompletedBytes(),
		CurrentFileIndex:   t.CurrentFileIndex(),
		EstimatedBandwidth: t.sizeProgress.Rate(),
		EstimatedEtaMs:     est.EstimatedEtaMs,
	}
	if t.lastCompleted != nil {
		item := *t.lastCompleted
		snap.LastCompletedItem = &item
	}
	return snap
}

func (t *Tracker) TotalFiles() uint64 {
	return t.fileProgress.Total()
}

func (t *Tracker) CompletedFiles() uint64 {
	return t.fileProgress.Completed()
}

// CurrentFileIndex is the 1-based position within the run: everything
// finished plus everything currently in flight.
func (t *Tracker) CurrentFileIndex() uint64 {
	return t.fileProgress.Completed() + uint64(len(t.currentItems))
}

func (t *Tracker) TotalBytes() uint64 {
	return t.sizeProgress.Total()
}

func (t *Tracker) CompletedBytes() uint64 {
	return t.sizeProgress.Completed()
}

// InFlight returns the number of items currently being transferred.
func (t *Tracker) InFlight() int {
	return len(t.currentItems)
}

// LastCompletedItem returns the most recently completed item, if there is a
// well-defined one.
func (t *Tracker) LastCompletedItem() (WorkItem, bool) {
	if t.lastCompleted == nil {
		return WorkItem{}, false
	}
	return *t.lastCompleted, true
}

func (t *Tracker) recomputeCompletedSize() {
	total := t.completedJobsSize
	for _, pi := range t.currentItems {
		if pi.item.SizeDependent() {
			total += pi.est.Completed()
		}
	}
	t.sizeProgress.SetCompleted(total)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
