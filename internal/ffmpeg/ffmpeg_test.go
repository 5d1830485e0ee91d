package ffmpeg

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	skipIfNoFFmpeg(t)
	e, err := New(zerolog.Nop(), Options{Threads: 2})
	require.NoError(t, err)
	return e
}

// generateVideo writes a synthetic test pattern into dir
func generateVideo(t *testing.T, dir, name string, seconds int) string {
	t.Helper()
	out := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration="+strconv.Itoa(seconds)+":size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-g", "30", out)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return out
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{255, 255, 255, 200}}, image.Point{}, draw.Src)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBuildOverlayFilter(t *testing.T) {
	filter := BuildOverlayFilter([]OverlayInput{
		{Image: "counter_1.png", Start: 0, End: 4 * time.Second},
		{Image: "counter_2.png", Start: 4 * time.Second, End: 8 * time.Second},
	}, 26)

	expected := "[1:v]format=rgba[c1];" +
		"[0:v][c1]overlay=26:26:enable='gte(t,0.00)*lt(t,4.00)'[s1];" +
		"[2:v]format=rgba[c2];" +
		"[s1][c2]overlay=26:26:enable='gte(t,4.00)*lt(t,8.00)'"
	assert.Equal(t, expected, filter)
}

func TestBuildOverlayFilterSingle(t *testing.T) {
	filter := BuildOverlayFilter([]OverlayInput{
		{Image: "counter_1.png", Start: 0, End: 4 * time.Second},
	}, 10)

	assert.Equal(t, "[1:v]format=rgba[c1];[0:v][c1]overlay=10:10:enable='gte(t,0.00)*lt(t,4.00)'", filter)
}

func TestOverlayArgs(t *testing.T) {
	e := &Executor{preset: OverlayPreset, crf: DefaultCRF}
	args := e.OverlayArgs(OverlayOptions{
		Input: "tmp_in.webm",
		Overlays: []OverlayInput{
			{Image: "counter_1.png", Start: 0, End: 4 * time.Second},
			{Image: "counter_2.png", Start: 4 * time.Second, End: 8 * time.Second},
		},
		Margin: 26,
		Output: "final.mp4",
	})

	joined := strings.Join(args, " ")
	assert.True(t, strings.HasPrefix(joined, "-i tmp_in.webm -i counter_1.png -i counter_2.png -filter_complex "))
	assert.True(t, strings.HasSuffix(joined,
		"-c:v libx264 -preset ultrafast -crf 23 -c:a copy -movflags +faststart final.mp4"))
}

func TestClipArgs(t *testing.T) {
	args := ClipArgs("input.mp4", ClipOptions{
		Start:    7500 * time.Millisecond,
		Duration: 4 * time.Second,
		Output:   "seg.mp4",
	})
	assert.Equal(t, []string{
		"-ss", "7.50", "-i", "input.mp4", "-t", "4.00",
		"-c", "copy", "-avoid_negative_ts", "make_zero", "seg.mp4",
	}, args)
}

func TestConcatArgsAndManifest(t *testing.T) {
	assert.Equal(t, "file 'seg0.mp4'\nfile 'seg1.mp4'", string(Manifest([]string{"seg0.mp4", "seg1.mp4"})))
	assert.Equal(t, "file 'it'\\''s.mp4'", string(Manifest([]string{"it's.mp4"})))
	assert.Empty(t, Manifest(nil))

	assert.Equal(t, []string{"-f", "concat", "-safe", "0", "-i", "concat.txt", "-c", "copy", "output.mp4"},
		ConcatArgs(ConcatOptions{Manifest: "concat.txt", Output: "output.mp4"}))
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilterBuilder().Scale(320, 180).Format("rgba").Build()
	assert.Equal(t, "scale=320:180,format=rgba", filter)
}

func TestFilterBuilderSkipsInvalid(t *testing.T) {
	assert.Equal(t, "", NewFilterBuilder().Scale(0, 180).Format("").Build())
}

func TestFilterBuilderCustom(t *testing.T) {
	filter := NewFilterBuilder().Scale(320, 180).Custom("setsar=1").Custom("").Build()
	assert.Equal(t, "scale=320:180,setsar=1", filter)
}

func TestOverlayGraphLen(t *testing.T) {
	overlays := []OverlayInput{
		{Image: "counter_1.png", Start: 0, End: 4 * time.Second},
		{Image: "counter_2.png", Start: 4 * time.Second, End: 8 * time.Second},
		{Image: "counter_3.png", Start: 8 * time.Second, End: 12 * time.Second},
	}
	g := overlayGraph(overlays, 26)
	assert.Equal(t, 6, g.Len())
	assert.Equal(t, BuildOverlayFilter(overlays, 26), g.String())
}

func TestProbeArgs(t *testing.T) {
	assert.Equal(t, []string{"-v", "error", "-of", "json", "-show_format", "-show_streams", "game.mp4"},
		ProbeArgs("game.mp4"))
}

func TestParseProbe(t *testing.T) {
	t.Run("mp4", func(t *testing.T) {
		info, err := parseProbe([]byte(`{
			"format": {"duration": "12.500000", "bit_rate": "800000"},
			"streams": [
				{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
				{"codec_type": "audio", "codec_name": "aac", "bit_rate": "128000"},
				{"codec_type": "video", "codec_name": "mjpeg", "width": 160, "height": 90}
			]}`))
		require.NoError(t, err)
		assert.True(t, info.HasVideo)
		assert.True(t, info.HasAudio)
		assert.Equal(t, 12500*time.Millisecond, info.Duration)
		assert.Equal(t, int64(800000), info.Bitrate)
		assert.Equal(t, 1920, info.Width)
		assert.Equal(t, 1080, info.Height)
		assert.Equal(t, "h264", info.VideoCodec)
		assert.InDelta(t, 29.97, info.FPS, 0.01)
		assert.Equal(t, "aac", info.AudioCodec)
		assert.Equal(t, int64(128000), info.AudioBitrate)
	})

	t.Run("webm stream duration", func(t *testing.T) {
		info, err := parseProbe([]byte(`{
			"format": {"duration": "N/A"},
			"streams": [{"codec_type": "video", "codec_name": "vp9", "width": 1280, "height": 720, "duration": "7.25"}]}`))
		require.NoError(t, err)
		assert.Equal(t, 7250*time.Millisecond, info.Duration)
		assert.False(t, info.HasAudio)
	})

	t.Run("audio only", func(t *testing.T) {
		info, err := parseProbe([]byte(`{"format": {"duration": "3.0"}, "streams": [{"codec_type": "audio"}]}`))
		require.NoError(t, err)
		assert.False(t, info.HasVideo)
		assert.Equal(t, 3*time.Second, info.Duration)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseProbe([]byte("not json"))
		assert.Error(t, err)
	})
}

func TestGraph(t *testing.T) {
	g := &Graph{}
	g.Chain([]string{"0:v"}, "scale=2:2", "a").Chain([]string{"a", "1:v"}, "overlay", "")
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "[0:v]scale=2:2[a];[a][1:v]overlay", g.String())
}

func TestFrameArgs(t *testing.T) {
	args := FrameArgs("input.mp4", 1500*time.Millisecond, 320, 180)
	assert.Equal(t, []string{
		"-ss", "1.50", "-i", "input.mp4", "-frames:v", "1", "-an",
		"-vf", "scale=320:180", "-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1",
	}, args)
}

func TestLineTail(t *testing.T) {
	tail := newLineTail(2)
	tail.add("one")
	tail.add("  ")
	tail.add("two")
	tail.add("three")
	assert.Equal(t, []string{"two", "three"}, tail.lines())
}

func TestExitError(t *testing.T) {
	inner := errors.New("exit status 1")
	err := error(&ExitError{Err: inner, Tail: []string{"a", "No such file"}})
	assert.True(t, IsExitError(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "No such file")
	assert.False(t, IsExitError(inner))
}

func TestLocateConfiguredMissing(t *testing.T) {
	_, err := locate("ffmpeg", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExecutorCreation(t *testing.T) {
	e := newTestExecutor(t)
	assert.NotEmpty(t, e.ffmpegPath)
	assert.Equal(t, e.ffmpegPath, e.Path())
	assert.NotEmpty(t, e.ffprobePath)
	assert.Equal(t, OverlayPreset, e.preset)
	assert.Equal(t, DefaultCRF, e.crf)
}

func TestProbeVideo(t *testing.T) {
	e := newTestExecutor(t)
	dir := t.TempDir()
	input := generateVideo(t, dir, "test.mp4", 3)

	info, err := e.ProbeVideo(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, info.HasVideo)
	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.InDelta(t, 3.0, info.Duration.Seconds(), 0.2)
	assert.InDelta(t, 30.0, info.FPS, 0.01)
}

func TestProbeVideoInvalidFile(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	_, err := e.ProbeVideo(ctx, filepath.Join(t.TempDir(), "nonexistent.mp4"))
	assert.Error(t, err)

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	require.NoError(t, os.WriteFile(invalidPath, []byte("not a video"), 0644))
	_, err = e.ProbeVideo(ctx, invalidPath)
	assert.Error(t, err)
}

func TestExtractFrame(t *testing.T) {
	e := newTestExecutor(t)
	input := generateVideo(t, t.TempDir(), "test.mp4", 3)

	img, err := e.ExtractFrame(context.Background(), input, time.Second, 32, 18)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 18, img.Bounds().Dy())

	nonZero := false
	for _, b := range img.Pix {
		if b != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "test pattern should not decode to black")
}

func TestExtractFramePastEnd(t *testing.T) {
	e := newTestExecutor(t)
	input := generateVideo(t, t.TempDir(), "test.mp4", 2)

	_, err := e.ExtractFrame(context.Background(), input, 30*time.Second, 32, 18)
	assert.Error(t, err)
}

func TestClipConcatOverlay(t *testing.T) {
	e := newTestExecutor(t)
	dir := t.TempDir()
	generateVideo(t, dir, "input.mp4", 6)
	ctx := context.Background()

	for i, start := range []time.Duration{0, 2 * time.Second} {
		name := "seg" + strconv.Itoa(i) + ".mp4"
		err := e.ExtractClip(ctx, "input.mp4", ClipOptions{
			Start: start, Duration: 2 * time.Second, Output: name, Dir: dir,
		})
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "concat.txt"),
		Manifest([]string{"seg0.mp4", "seg1.mp4"}), 0644))
	require.NoError(t, e.Concat(ctx, ConcatOptions{Manifest: "concat.txt", Output: "output.mp4", Dir: dir}))

	info, err := e.ProbeVideo(ctx, filepath.Join(dir, "output.mp4"))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, info.Duration.Seconds(), 0.5)

	writeTestPNG(t, filepath.Join(dir, "counter_1.png"))
	err = e.Overlay(ctx, OverlayOptions{
		Input:    "output.mp4",
		Overlays: []OverlayInput{{Image: "counter_1.png", Start: 0, End: 2 * time.Second}},
		Margin:   6,
		Output:   "final.mp4",
		Dir:      dir,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "final.mp4"))
	assert.NoError(t, err)
}

func TestRunCancelled(t *testing.T) {
	e := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx, RunOptions{Args: []string{"-f", "lavfi", "-i", "testsrc", "-f", "null", "-"}})
	assert.Error(t, err)
}

func TestRunNoArgs(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	assert.Error(t, e.Run(context.Background(), RunOptions{}))
}
