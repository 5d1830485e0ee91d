package detect

// Deduplicator enforces a minimum gap between accepted instants. Instants
// must be offered in increasing time order.
type Deduplicator struct {
	minGap float64
	last   float64
	seen   bool
}

// NewDeduplicator creates a deduplicator with the given gap in seconds.
func NewDeduplicator(minGapSeconds float64) *Deduplicator {
	return &Deduplicator{minGap: max(0, minGapSeconds)}
}

// Accept reports whether an instant at t seconds is far enough from the last
// accepted one, and records it if so.
func (d *Deduplicator) Accept(t float64) bool {
	if d.seen && t-d.last <= d.minGap {
		return false
	}
	d.last = t
	d.seen = true
	return true
}

// Confidence maps a classifier score onto the 0..100 range.
func Confidence(score float64) float64 {
	return min(100, max(0, score))
}
