package motion

import "math"

const (
	// Alpha is the smoothing factor of the exponential mean and variance.
	Alpha = 0.08
	// K scales the standard deviation added to the mean for the threshold.
	K = 2.0
	// MinThreshold is the global threshold floor.
	MinThreshold = 2.5
	// ReferenceArea is the region area (fraction of frame) above which the
	// floor starts shrinking.
	ReferenceArea = 0.01
	// FloorLimit is the lowest value the scaled floor can reach.
	FloorLimit = 0.3
)

// RegionStats is the exponential mean/variance estimate for one region.
type RegionStats struct {
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	Initialized bool    `json:"initialized"`
}

// Tracker keeps one RegionStats per analyzed region. It is owned by a single
// analysis run and is not safe for concurrent use.
type Tracker struct {
	regions []Region
	stats   []RegionStats
}

// NewTracker creates a tracker for the given region configuration; with no
// regions it tracks a single whole-frame series.
func NewTracker(regions []Region) *Tracker {
	return &Tracker{
		regions: regions,
		stats:   make([]RegionStats, RegionCount(regions)),
	}
}

// Len returns the number of tracked series.
func (t *Tracker) Len() int {
	return len(t.stats)
}

// Stats returns a copy of the statistics for series i.
func (t *Tracker) Stats(i int) RegionStats {
	return t.stats[i]
}

// Update folds value into the statistics of series i. The first value seeds
// the mean with zero variance.
func (t *Tracker) Update(i int, value float64) {
	s := &t.stats[i]
	if !s.Initialized {
		s.Mean = value
		s.Variance = 0
		s.Initialized = true
		return
	}

	diff := value - s.Mean
	s.Mean += Alpha * diff
	s.Variance = (1 - Alpha) * (s.Variance + Alpha*diff*diff)
}

// MinThreshold returns the noise floor of series i. Regions larger than
// ReferenceArea get a floor scaled by sqrt(ReferenceArea/area), never below
// FloorLimit. The whole-frame series always uses the global floor.
func (t *Tracker) MinThreshold(i int) float64 {
	if len(t.regions) == 0 || i >= len(t.regions) {
		return MinThreshold
	}

	area := t.regions[i].Area()
	if area <= ReferenceArea {
		return MinThreshold
	}
	return math.Max(FloorLimit, MinThreshold*math.Sqrt(ReferenceArea/area))
}

// Threshold returns max(floor, mean + K*stddev) from the current statistics.
func (t *Tracker) Threshold(i int) float64 {
	floor := t.MinThreshold(i)
	if i >= len(t.stats) || !t.stats[i].Initialized {
		return floor
	}

	s := t.stats[i]
	return math.Max(floor, s.Mean+K*math.Sqrt(math.Max(0, s.Variance)))
}

// Thresholds returns the current threshold of every series.
func (t *Tracker) Thresholds() []float64 {
	out := make([]float64, len(t.stats))
	for i := range t.stats {
		out[i] = t.Threshold(i)
	}
	return out
}
