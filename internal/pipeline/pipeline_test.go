package pipeline

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/config"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func TestPipelineAnalyzeAndExport(t *testing.T) {
	skipIfNoFFmpeg(t)
	if testing.Short() {
		t.Skip("skipping ffmpeg pipeline test in short mode")
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "game.mp4")
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=12:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-g", "30", input)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}

	cfg := config.Default()
	cfg.TempDir = dir
	cfg.Detector.AnalysisWidth = 64
	cfg.Detector.AnalysisHeight = 36

	p, err := New(zerolog.Nop(), cfg)
	require.NoError(t, err)

	ctx := context.Background()
	project, err := p.Analyze(ctx, input, AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "game.mp4", project.Name)
	assert.Equal(t, 320, project.Width)
	assert.NotEmpty(t, project.Chart)

	project.Highlights = []*clips.Highlight{
		{Timestamp: 4, Enabled: true},
		{Timestamp: 9, Enabled: true},
	}
	out, err := p.Export(ctx, project, ExportConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, "mp4", out.Extension)
	assert.NotEmpty(t, out.Data)

	clip, err := p.ExportClip(ctx, project, 2, ExportConfig(cfg))
	require.NoError(t, err)
	assert.NotEmpty(t, clip.Data)

	leftovers, err := filepath.Glob(filepath.Join(dir, "hoopreel-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "export workspaces should be removed")
}
