package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

// FrameArgs returns arguments that decode the frame at `at`, scaled to
// width x height, as raw RGBA on stdout.
func FrameArgs(input string, at time.Duration, width, height int) []string {
	return []string{
		"-ss", util.FormatSeconds(at),
		"-i", input,
		"-frames:v", "1",
		"-an",
		"-vf", NewFilterBuilder().Scale(width, height).Build(),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}
}

// ExtractFrame decodes a single frame. It returns ErrNoFrame when ffmpeg
// produced no picture, which happens when seeking at or past the end.
func (e *Executor) ExtractFrame(ctx context.Context, input string, at time.Duration, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	var buf bytes.Buffer
	buf.Grow(width * height * 4)

	err := e.Run(ctx, RunOptions{
		Args:   FrameArgs(input, at, width, height),
		Stdout: &buf,
	})
	if err != nil {
		return nil, fmt.Errorf("frame at %s: %w", util.FormatSeconds(at), err)
	}

	if buf.Len() == 0 {
		return nil, ErrNoFrame
	}
	if buf.Len() < width*height*4 {
		return nil, fmt.Errorf("short frame at %s: got %d bytes, want %d",
			util.FormatSeconds(at), buf.Len(), width*height*4)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, buf.Bytes())
	return img, nil
}
