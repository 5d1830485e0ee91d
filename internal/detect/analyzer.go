package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/motion"
	"github.com/rs/zerolog"
)

// Config configures an analysis run
type Config struct {
	SampleRateHz       float64
	MinGap             time.Duration
	Regions            []motion.Region
	AnalysisWidth      int
	AnalysisHeight     int
	SeekTimeout        time.Duration
	SlowFrameThreshold time.Duration
	SlowCheckFrames    int
	// AbortOnSlow makes Run return a *SlowProcessingError once the first
	// SlowCheckFrames instants average above SlowFrameThreshold.
	AbortOnSlow bool
}

// DefaultConfig returns the stock detector settings.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:       3,
		MinGap:             3 * time.Second,
		AnalysisWidth:      320,
		AnalysisHeight:     180,
		SeekTimeout:        5 * time.Second,
		SlowFrameThreshold: 1500 * time.Millisecond,
		SlowCheckFrames:    2,
	}
}

// Validate checks a configuration before a run.
func (c Config) Validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRateHz)
	}
	if c.MinGap < 0 {
		return fmt.Errorf("min gap cannot be negative")
	}
	return motion.ValidateRegions(c.Regions)
}

// ChartSample is the diagnostic record of one analyzed instant.
type ChartSample struct {
	Time       float64   `json:"time"`
	Motions    []float64 `json:"motions"`
	Thresholds []float64 `json:"thresholds"`
	Detected   bool      `json:"detected"`
}

// Progress is reported after every instant.
type Progress struct {
	Time       float64
	Duration   float64
	Frames     int
	Highlights int
}

// Percent returns progress through the source in [0,100].
func (p Progress) Percent() int {
	if p.Duration <= 0 {
		return 0
	}
	return int(min(100, p.Time/p.Duration*100))
}

// Result is the output of an analysis run.
type Result struct {
	Highlights []*clips.Highlight
	Chart      []ChartSample
	Perf       PerfStats
}

// Analyzer drives a FrameSource through the detector.
type Analyzer struct {
	logger zerolog.Logger
	source FrameSource
	config Config

	// OnProgress, if set, is called after every instant.
	OnProgress func(Progress)
	// OnHighlight, if set, is called as soon as a highlight is accepted.
	OnHighlight func(*clips.Highlight)

	now func() time.Time
}

// NewAnalyzer creates an analyzer over source
func NewAnalyzer(logger zerolog.Logger, source FrameSource, cfg Config) *Analyzer {
	return &Analyzer{
		logger: logger.With().Str("component", "detector").Logger(),
		source: source,
		config: cfg,
		now:    time.Now,
	}
}

// Run analyzes the whole source from the start. Every call builds a fresh
// session, so a failed or aborted run can simply be run again.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}

	cfg := a.config
	duration := a.source.Duration().Seconds()
	w, h := a.source.Dimensions()

	a.logger.Info().
		Float64("duration", duration).
		Int("width", w).
		Int("height", h).
		Int("regions", len(cfg.Regions)).
		Float64("rate_hz", cfg.SampleRateHz).
		Msg("starting analysis")

	session := NewSession(cfg.Regions)
	dedup := NewDeduplicator(cfg.MinGap.Seconds())
	res := &Result{}
	perf := &res.Perf
	start := a.now()

	var prev *image.RGBA
	for i := 0; ; i++ {
		t := float64(i) / cfg.SampleRateHz
		if t >= duration {
			break
		}
		if err := ctx.Err(); err != nil {
			a.logger.Info().Float64("time", t).Msg("analysis aborted")
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}

		frameStart := a.now()
		frame, err := a.fetch(ctx, t, perf)
		if err != nil {
			return nil, err
		}
		if frame == nil {
			frame = prev
		}
		if frame == nil {
			a.logger.Debug().Float64("time", t).Msg("no frame available yet, skipping instant")
			continue
		}

		if prev != nil {
			motionStart := a.now()
			motions := motion.Sample(prev, frame, cfg.Regions)
			perf.MotionTimes = append(perf.MotionTimes, a.now().Sub(motionStart))

			if err := session.Push(motions); err != nil {
				return nil, err
			}
			res.Chart = append(res.Chart, ChartSample{
				Time:       t,
				Motions:    motions,
				Thresholds: session.Thresholds(),
			})

			if session.Ready() {
				scored := session.Score()
				if scored.Passes && dedup.Accept(t) {
					res.Chart[len(res.Chart)-1].Detected = true
					hl := a.highlight(t, frame, scored)
					res.Highlights = append(res.Highlights, hl)

					a.logger.Info().
						Float64("time", t).
						Float64("score", scored.Score).
						Int("region", scored.RegionIndex).
						Strs("reasons", scored.Reasons).
						Msg("highlight detected")

					if a.OnHighlight != nil {
						a.OnHighlight(hl)
					}
				}
			}
			session.Advance()
		}

		prev = frame
		perf.Frames++
		perf.FrameTimes = append(perf.FrameTimes, a.now().Sub(frameStart))

		if a.OnProgress != nil {
			a.OnProgress(Progress{
				Time:       t,
				Duration:   duration,
				Frames:     perf.Frames,
				Highlights: len(res.Highlights),
			})
		}

		if perf.Frames == cfg.SlowCheckFrames {
			if err := a.checkSlow(perf); err != nil {
				return nil, err
			}
		}
	}

	perf.Elapsed = a.now().Sub(start)
	a.logger.Info().
		Int("highlights", len(res.Highlights)).
		Object("perf", perf.Summary()).
		Msg("analysis complete")

	return res, nil
}

// fetch reads the frame at t seconds within the seek timeout. A nil frame
// with a nil error means the instant should reuse the previous frame.
func (a *Analyzer) fetch(ctx context.Context, t float64, perf *PerfStats) (*image.RGBA, error) {
	at := time.Duration(t * float64(time.Second))

	frameCtx := ctx
	if a.config.SeekTimeout > 0 {
		var cancel context.CancelFunc
		frameCtx, cancel = context.WithTimeout(ctx, a.config.SeekTimeout)
		defer cancel()
	}

	seekStart := a.now()
	frame, err := a.source.Frame(frameCtx, at)
	seek := a.now().Sub(seekStart)
	perf.SeekTimes = append(perf.SeekTimes, seek)

	switch {
	case err == nil && frame == nil:
		perf.MissingFrames++
		return nil, nil
	case err == nil:
		return normalize(frame, a.config.AnalysisWidth, a.config.AnalysisHeight), nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	case errors.Is(err, ErrDecodeUnavailable):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded):
		perf.SeekTimeouts++
		a.logger.Warn().Float64("time", t).Dur("seek", seek).Msg("frame seek timed out, reusing previous frame")
		return nil, nil
	case errors.Is(err, ErrNoFrame):
		perf.MissingFrames++
		a.logger.Debug().Float64("time", t).Msg("source returned no frame")
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to read frame at %.2fs: %w", t, err)
	}
}

func (a *Analyzer) highlight(t float64, frame *image.RGBA, scored Scored) *clips.Highlight {
	thumb, err := EncodeThumbnail(frame, ThumbnailWidth, ThumbnailHeight)
	if err != nil {
		a.logger.Warn().Err(err).Float64("time", t).Msg("thumbnail failed")
	}

	return &clips.Highlight{
		Timestamp:  t,
		Confidence: Confidence(scored.Score),
		Thumbnail:  thumb,
		Enabled:    true,
		Reasons:    scored.Reasons,
		Debug: clips.DebugMetrics{
			Motion:      scored.Motion,
			Threshold:   scored.Threshold,
			Score:       scored.Score,
			RegionIndex: scored.RegionIndex,
		},
	}
}

func (a *Analyzer) checkSlow(perf *PerfStats) error {
	limit := a.config.SlowFrameThreshold
	if limit <= 0 {
		return nil
	}

	avg := averageDuration(perf.FrameTimes)
	if avg <= limit {
		return nil
	}

	slow := &SlowProcessingError{Average: avg, Limit: limit, Frames: perf.Frames}
	if a.config.AbortOnSlow {
		return slow
	}
	a.logger.Warn().Err(slow).Msg("processing is still slow, continuing; manual intervention may be needed")
	return nil
}
