package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// ConcatOptions defines concatenation parameters. Manifest names a concat
// demuxer list relative to Dir.
type ConcatOptions struct {
	Manifest     string
	Output       string
	Dir          string
	ProgressFunc ProgressFunc
}

// Manifest renders a concat demuxer list for the given segment names
func Manifest(names []string) []byte {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("file '%s'", strings.ReplaceAll(name, "'", `'\''`))
	}
	return []byte(strings.Join(lines, "\n"))
}

// ConcatArgs returns the stream-copy concat arguments
func ConcatArgs(opts ConcatOptions) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", opts.Manifest,
		"-c", "copy",
		opts.Output,
	}
}

// Concat merges the segments listed in a manifest into one file
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if opts.Manifest == "" {
		return fmt.Errorf("concat manifest is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("manifest", opts.Manifest).
		Str("output", opts.Output).
		Msg("concatenating videos")

	runOpts := RunOptions{
		Args:            ConcatArgs(opts),
		Dir:             opts.Dir,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("concatenating")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}
	return nil
}
