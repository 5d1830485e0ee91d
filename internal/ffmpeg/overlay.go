package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

// OverlayInput is one still image composited over [Start, End)
type OverlayInput struct {
	Image string
	Start time.Duration
	End   time.Duration
}

// OverlayOptions configures a timed overlay render
type OverlayOptions struct {
	Input        string
	Overlays     []OverlayInput
	Margin       int
	Output       string
	Dir          string
	Preset       string
	CRF          int
	ProgressFunc ProgressFunc
}

// BuildOverlayFilter chains one overlay per image onto input 0. Image k is
// ffmpeg input k+1 and is pinned at (margin, margin) while t is in its
// half-open window, so adjacent windows never show two images at once.
func BuildOverlayFilter(overlays []OverlayInput, margin int) string {
	return overlayGraph(overlays, margin).String()
}

func overlayGraph(overlays []OverlayInput, margin int) *Graph {
	g := &Graph{}
	prev := "0:v"
	m := strconv.Itoa(margin)

	for i, ov := range overlays {
		idx := i + 1
		img := fmt.Sprintf("c%d", idx)
		g.Chain([]string{fmt.Sprintf("%d:v", idx)}, NewFilterBuilder().Format("rgba").Build(), img)

		enable := fmt.Sprintf("enable='gte(t,%s)*lt(t,%s)'",
			util.FormatSeconds(ov.Start), util.FormatSeconds(ov.End))
		out := ""
		if idx < len(overlays) {
			out = fmt.Sprintf("s%d", idx)
		}
		filter := NewFilterBuilder().Custom(fmt.Sprintf("overlay=%s:%s:%s", m, m, enable)).Build()
		g.Chain([]string{prev, img}, filter, out)
		prev = out
	}

	return g
}

// OverlayArgs returns the full argument list for an overlay render
func (e *Executor) OverlayArgs(opts OverlayOptions) []string {
	preset := opts.Preset
	if preset == "" {
		preset = e.preset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = e.crf
	}

	args := []string{"-i", opts.Input}
	for _, ov := range opts.Overlays {
		args = append(args, "-i", ov.Image)
	}
	return append(args,
		"-filter_complex", BuildOverlayFilter(opts.Overlays, opts.Margin),
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-c:a", "copy",
		"-movflags", "+faststart",
		opts.Output,
	)
}

// Overlay re-encodes Input with every overlay composited in its window
func (e *Executor) Overlay(ctx context.Context, opts OverlayOptions) error {
	if len(opts.Overlays) == 0 {
		return fmt.Errorf("no overlays provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", opts.Input).
		Int("overlays", len(opts.Overlays)).
		Int("chains", overlayGraph(opts.Overlays, opts.Margin).Len()).
		Str("output", opts.Output).
		Msg("rendering overlays")

	runOpts := RunOptions{
		Args:            e.OverlayArgs(opts),
		Dir:             opts.Dir,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("overlay")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("overlay render failed: %w", err)
	}
	return nil
}
