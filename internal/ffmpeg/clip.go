package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	Duration     time.Duration
	Output       string
	Dir          string
	ProgressFunc ProgressFunc
}

// ClipArgs returns the stream-copy trim arguments. Seeking before -i snaps
// to the nearest keyframe; make_zero rebases timestamps so the segments
// concatenate cleanly.
func ClipArgs(input string, opts ClipOptions) []string {
	return []string{
		"-ss", util.FormatSeconds(opts.Start),
		"-i", input,
		"-t", util.FormatSeconds(opts.Duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		opts.Output,
	}
}

// ExtractClip cuts a segment from a video without re-encoding
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid clip duration %v", opts.Duration)
	}
	if opts.Start < 0 {
		opts.Start = 0
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", opts.Duration).
		Msg("extracting clip")

	runOpts := RunOptions{
		Args:            ClipArgs(input, opts),
		Dir:             opts.Dir,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}
	return nil
}
