package progress

const (
	// If progress stops entirely, the smoothed rate decays to
	// smoothing^N of its value after N ticks (~4% left after 30 ticks).
	rateSmoothing = 0.9

	// The ramp factor goes from 1 to ~0.03 over ten ticks, so the first
	// measurements are taken near-verbatim before the moving average
	// takes over.
	rampDecay = 0.7
)

// Estimates is a point-in-time bandwidth and time-to-completion estimate.
// An EstimatedEtaMs of 0 means the ETA is unknown, not instant.
type Estimates struct {
	EstimatedBandwidth float64 `json:"estimatedBandwidth"`
	EstimatedEtaMs     uint64  `json:"estimatedEtaMs"`
}

// RateEstimator smooths one monotonically advancing counter (files or bytes)
// into a units-per-second rate using an exponential moving average, and
// derives a naive ETA against the run total.
type RateEstimator struct {
	total         uint64
	completed     uint64
	prevCompleted uint64
	ratePerSec    float64
	ramp          float64
}

func NewRateEstimator() *RateEstimator {
	return &RateEstimator{ramp: 1.0}
}

// SetTotal raises the total to n. Totals never shrink mid-run.
func (r *RateEstimator) SetTotal(n uint64) {
	if n > r.total {
		r.total = n
	}
}

// AddTotal grows the total as new planned work is discovered.
func (r *RateEstimator) AddTotal(n uint64) {
	r.total += n
}

// SetCompleted clamps n into [0, total] and keeps the previous-tick value
// from exceeding it, so the next tick's delta cannot go negative.
func (r *RateEstimator) SetCompleted(n uint64) {
	r.completed = min(n, r.total)
	r.prevCompleted = min(r.prevCompleted, r.completed)
}

// Tick folds the progress made since the previous tick into the smoothed
// rate. Call once per second while the run is active.
func (r *RateEstimator) Tick() {
	w := rateSmoothing * (1.0 - r.ramp)
	r.ramp *= rampDecay
	r.ratePerSec = w*r.ratePerSec + (1.0-w)*float64(r.completed-r.prevCompleted)
	r.prevCompleted = r.completed
}

// Estimate returns the smoothed bandwidth and the ETA in milliseconds.
func (r *RateEstimator) Estimate() Estimates {
	est := Estimates{EstimatedBandwidth: r.ratePerSec}
	if r.ratePerSec != 0 {
		est.EstimatedEtaMs = uint64(float64(r.total-r.completed) / r.ratePerSec * 1000.0)
	}
	return est
}

func (r *RateEstimator) Total() uint64 {
	return r.total
}

func (r *RateEstimator) Completed() uint64 {
	return r.completed
}

func (r *RateEstimator) Remaining() uint64 {
	return r.total - r.completed
}

// Rate returns the current smoothed units-per-second rate.
func (r *RateEstimator) Rate() float64 {
	return r.ratePerSec
}
