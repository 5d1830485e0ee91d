package detect

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SlowSeek is the seek latency above which a seek counts as slow.
const SlowSeek = 500 * time.Millisecond

// PerfStats collects per-instant timings of an analysis run.
type PerfStats struct {
	Frames        int
	Elapsed       time.Duration
	SeekTimes     []time.Duration
	MotionTimes   []time.Duration
	FrameTimes    []time.Duration
	SeekTimeouts  int
	MissingFrames int
}

// PerfSummary is the aggregate view of PerfStats, in milliseconds.
type PerfSummary struct {
	Frames       int           `json:"frames"`
	Elapsed      time.Duration `json:"elapsed"`
	EffectiveFPS float64       `json:"effective_fps"`
	SeekAvgMs    float64       `json:"seek_avg_ms"`
	SeekMinMs    float64       `json:"seek_min_ms"`
	SeekMaxMs    float64       `json:"seek_max_ms"`
	SlowSeeks    int           `json:"slow_seeks"`
	SeekTimeouts int           `json:"seek_timeouts"`
	MotionAvgMs  float64       `json:"motion_avg_ms"`
	FrameAvgMs   float64       `json:"frame_avg_ms"`
}

// SlowSeeks counts seeks slower than SlowSeek.
func (p *PerfStats) SlowSeeks() int {
	var n int
	for _, d := range p.SeekTimes {
		if d > SlowSeek {
			n++
		}
	}
	return n
}

// Summary aggregates the raw timings.
func (p *PerfStats) Summary() PerfSummary {
	s := PerfSummary{
		Frames:       p.Frames,
		Elapsed:      p.Elapsed,
		SlowSeeks:    p.SlowSeeks(),
		SeekTimeouts: p.SeekTimeouts,
	}
	if p.Elapsed > 0 {
		s.EffectiveFPS = float64(p.Frames) / p.Elapsed.Seconds()
	}

	if seeks := millis(p.SeekTimes); len(seeks) > 0 {
		s.SeekAvgMs = stat.Mean(seeks, nil)
		s.SeekMinMs = floats.Min(seeks)
		s.SeekMaxMs = floats.Max(seeks)
	}
	if m := millis(p.MotionTimes); len(m) > 0 {
		s.MotionAvgMs = stat.Mean(m, nil)
	}
	if f := millis(p.FrameTimes); len(f) > 0 {
		s.FrameAvgMs = stat.Mean(f, nil)
	}
	return s
}

// MarshalZerologObject lets the summary be logged with Object().
func (s PerfSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("frames", s.Frames).
		Dur("elapsed", s.Elapsed).
		Float64("effective_fps", s.EffectiveFPS).
		Float64("seek_avg_ms", s.SeekAvgMs).
		Float64("seek_min_ms", s.SeekMinMs).
		Float64("seek_max_ms", s.SeekMaxMs).
		Int("slow_seeks", s.SlowSeeks).
		Int("seek_timeouts", s.SeekTimeouts).
		Float64("motion_avg_ms", s.MotionAvgMs).
		Float64("frame_avg_ms", s.FrameAvgMs)
}

func averageDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}

func millis(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = float64(d) / float64(time.Millisecond)
	}
	return out
}
