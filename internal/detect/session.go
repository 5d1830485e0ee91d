// Package detect turns a stream of frames into scored highlight instants.
package detect

import (
	"fmt"

	"github.com/kikiluvv/hoopreel/internal/motion"
)

// Classifier constants.
const (
	// MinHistory is the number of samples every region needs before scoring.
	MinHistory = 4
	// PassScore is the lowest score that makes an instant a candidate.
	PassScore = 50
	// CeilingFactor multiplies the threshold to get the "too large" ceiling.
	CeilingFactor = 6

	burstWindow      = 4
	burstScore       = 70
	anomalyScore     = 40
	spikeBonus       = 20
	spikeRatio       = 2.0
	spikeFloor       = 0.8
	sustainedPenalty = 50
)

// Classifier reasons.
const (
	ReasonTooLarge  = "(too large)"
	ReasonBurst     = "Anomaly Burst"
	ReasonAnomaly   = "Anomaly"
	ReasonSpike     = "Sharp Spike"
	ReasonSustained = "(sustained)"
)

// RegionScore is the classifier output for one region at one instant.
type RegionScore struct {
	Score     float64
	Motion    float64
	Threshold float64
	Reasons   []string

	Anomaly   bool
	TooLarge  bool
	Brief     bool
	Sustained bool
	Spike     bool
}

// Scored is the classifier output for one instant: the best region wins.
type Scored struct {
	Score       float64
	Motion      float64
	Threshold   float64
	RegionIndex int
	Reasons     []string
	Passes      bool

	Regions []RegionScore
}

// Session is the mutable detector state of a single analysis run: one
// statistics tracker and one motion history per region. Build a fresh one for
// every run.
type Session struct {
	tracker   *motion.Tracker
	histories []motion.History
}

// NewSession creates a session for the given regions (none means whole frame).
func NewSession(regions []motion.Region) *Session {
	tr := motion.NewTracker(regions)
	return &Session{
		tracker:   tr,
		histories: make([]motion.History, tr.Len()),
	}
}

// Regions returns the number of analyzed series, fixed for the session.
func (s *Session) Regions() int {
	return len(s.histories)
}

// Push records the motion magnitudes of the current instant.
func (s *Session) Push(motions []float64) error {
	if len(motions) != len(s.histories) {
		return fmt.Errorf("got %d motion values for %d regions", len(motions), len(s.histories))
	}
	for i, m := range motions {
		s.histories[i].Push(m)
	}
	return nil
}

// Ready reports whether every region has enough history to be scored.
func (s *Session) Ready() bool {
	for i := range s.histories {
		if s.histories[i].Len() < MinHistory {
			return false
		}
	}
	return true
}

// Thresholds returns the current per-region thresholds.
func (s *Session) Thresholds() []float64 {
	return s.tracker.Thresholds()
}

// Tracker exposes the statistics for diagnostics.
func (s *Session) Tracker() *motion.Tracker {
	return s.tracker
}

// Score classifies the current instant from the histories and the statistics
// as they stood before this instant. It does not modify the session; call
// Advance afterwards.
func (s *Session) Score() Scored {
	res := Scored{
		Threshold: s.tracker.MinThreshold(0),
		Regions:   make([]RegionScore, len(s.histories)),
	}

	var best float64
	for i := range s.histories {
		rs := ScoreRegion(s.histories[i].Values(), s.tracker.Threshold(i))
		res.Regions[i] = rs

		if rs.Score > best {
			best = rs.Score
			res.Score = rs.Score
			res.Motion = rs.Motion
			res.Threshold = rs.Threshold
			res.RegionIndex = i
			res.Reasons = rs.Reasons
		}
	}

	res.Passes = res.Score >= PassScore
	return res
}

// Advance folds the newest magnitude of every region into its statistics.
func (s *Session) Advance() {
	for i := range s.histories {
		if s.histories[i].Len() == 0 {
			continue
		}
		s.tracker.Update(i, s.histories[i].Last())
	}
}

// ScoreRegion applies the burst rules to one region's history (oldest first)
// against its threshold.
//
// The spike bonus compares the mean of the last two samples with the mean of
// the up to three samples before them. When there are none the earlier mean
// is 0, which makes the ratio test pass trivially on short histories.
func ScoreRegion(history []float64, threshold float64) RegionScore {
	n := len(history)
	if n == 0 {
		return RegionScore{Threshold: threshold}
	}

	current := history[n-1]
	rs := RegionScore{
		Motion:    current,
		Threshold: threshold,
		Anomaly:   current > threshold,
		TooLarge:  current > threshold*CeilingFactor,
	}

	var above int
	for _, v := range history[max(0, n-burstWindow):] {
		if v > threshold {
			above++
		}
	}
	rs.Brief = above >= 1 && above <= 2
	rs.Sustained = above >= 3

	switch {
	case rs.TooLarge:
		rs.Reasons = append(rs.Reasons, ReasonTooLarge)
	case rs.Anomaly && rs.Brief:
		rs.Score += burstScore
		rs.Reasons = append(rs.Reasons, ReasonBurst)
	case rs.Anomaly && !rs.Sustained:
		rs.Score += anomalyScore
		rs.Reasons = append(rs.Reasons, ReasonAnomaly)
	}

	recent := sum(history[max(0, n-2):]) / 2
	var earlier float64
	if win := history[max(0, n-5):max(0, n-2)]; len(win) > 0 {
		earlier = sum(win) / float64(len(win))
	}
	if recent > earlier*spikeRatio && recent > threshold*spikeFloor && !rs.TooLarge {
		rs.Spike = true
		rs.Score += spikeBonus
		rs.Reasons = append(rs.Reasons, ReasonSpike)
	}

	if rs.Sustained {
		rs.Score = max(0, rs.Score-sustainedPenalty)
		rs.Reasons = append(rs.Reasons, ReasonSustained)
	}

	return rs
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
