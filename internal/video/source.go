// Package video adapts files on disk to the detector and export pipelines.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
)

// FrameSource decodes single frames of a file with ffmpeg, scaled to the
// analysis size.
type FrameSource struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
	path   string
	info   *ffmpeg.VideoInfo
	width  int
	height int
}

// NewFrameSource probes path and returns a source decoding at width x height.
// A file without a video stream yields detect.ErrDecodeUnavailable.
func NewFrameSource(ctx context.Context, logger zerolog.Logger, exec *ffmpeg.Executor, path string, width, height int) (*FrameSource, error) {
	info, err := exec.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", detect.ErrDecodeUnavailable, err)
	}
	if !info.HasVideo || info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("%w: %s has no video stream", detect.ErrDecodeUnavailable, path)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s has no duration", detect.ErrDecodeUnavailable, path)
	}
	if width <= 0 || height <= 0 {
		width, height = info.Width, info.Height
	}

	logger.Debug().
		Str("path", path).
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Msg("probed video")

	return &FrameSource{
		logger: logger.With().Str("component", "frames").Logger(),
		exec:   exec,
		path:   path,
		info:   info,
		width:  width,
		height: height,
	}, nil
}

// Frame decodes the frame at `at`.
func (s *FrameSource) Frame(ctx context.Context, at time.Duration) (*image.RGBA, error) {
	img, err := s.exec.ExtractFrame(ctx, s.path, at, s.width, s.height)
	if errors.Is(err, ffmpeg.ErrNoFrame) {
		return nil, detect.ErrNoFrame
	}
	return img, err
}

// Duration returns the probed duration.
func (s *FrameSource) Duration() time.Duration {
	return s.info.Duration
}

// Dimensions returns the source frame size.
func (s *FrameSource) Dimensions() (int, int) {
	return s.info.Width, s.info.Height
}

// Info returns the probe result.
func (s *FrameSource) Info() *ffmpeg.VideoInfo {
	return s.info
}

// Warm reads the whole file once so later seeks hit the page cache.
func (s *FrameSource) Warm(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	n, err := io.Copy(io.Discard, &ctxReader{ctx: ctx, r: f})
	if err != nil {
		return fmt.Errorf("failed to warm %s: %w", s.path, err)
	}
	s.logger.Debug().Int64("bytes", n).Dur("took", time.Since(start)).Msg("warmed source")
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// File is an export source backed by a file on disk. Its bytes are only
// read when ReadAll is called.
type File struct {
	path string
}

// NewFile returns a source for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Name returns the file's base name.
func (f *File) Name() string {
	return filepath.Base(f.path)
}

// Path returns the full path.
func (f *File) Path() string {
	return f.path
}

// ReadAll reads the whole file.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return data, nil
}

var _ detect.FrameSource = (*FrameSource)(nil)
