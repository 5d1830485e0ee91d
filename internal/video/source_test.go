package video

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
)

func TestFileReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.webm")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	f := NewFile(path)
	assert.Equal(t, "game.webm", f.Name())

	data, err := f.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.mp4")).ReadAll(context.Background())
	assert.Error(t, err)
}

func TestCtxReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&ctxReader{ctx: ctx, r: nil}).Read(make([]byte, 4))
	assert.True(t, errors.Is(err, context.Canceled))
}

func newExecutor(t *testing.T) *ffmpeg.Executor {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
	e, err := ffmpeg.New(zerolog.Nop(), ffmpeg.Options{})
	require.NoError(t, err)
	return e
}

func TestFrameSource(t *testing.T) {
	e := newExecutor(t)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}

	ctx := context.Background()
	src, err := NewFrameSource(ctx, zerolog.Nop(), e, path, 64, 36)
	require.NoError(t, err)

	w, h := src.Dimensions()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
	assert.InDelta(t, 2.0, src.Duration().Seconds(), 0.2)

	frame, err := src.Frame(ctx, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 64, frame.Bounds().Dx())
	assert.Equal(t, 36, frame.Bounds().Dy())

	require.NoError(t, src.Warm(ctx))
}

func TestFrameSourceAudioOnly(t *testing.T) {
	e := newExecutor(t)
	path := filepath.Join(t.TempDir(), "tone.m4a")
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=1", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test audio: %v", err)
	}

	_, err := NewFrameSource(context.Background(), zerolog.Nop(), e, path, 0, 0)
	assert.ErrorIs(t, err, detect.ErrDecodeUnavailable)
}
