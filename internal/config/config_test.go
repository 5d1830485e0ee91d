package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/hoopreel/internal/motion"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hoopreel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
detector:
  sample_rate_hz: 2
  min_gap: 4s
  regions:
    - {x: 0.1, y: 0.2, width: 0.05, height: 0.05}
export:
  overlay: false
ffmpeg:
  threads: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Detector.SampleRateHz)
	assert.Equal(t, 4*time.Second, cfg.Detector.MinGap)
	assert.Equal(t, 5*time.Second, cfg.Detector.SeekTimeout, "unset keys keep defaults")
	assert.Equal(t, []motion.Region{{X: 0.1, Y: 0.2, Width: 0.05, Height: 0.05}}, cfg.Detector.Regions)
	assert.False(t, cfg.Export.Overlay)
	assert.Equal(t, 4*time.Second, cfg.Export.ClipLength)
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"too many regions": `
detector:
  regions:
    - {x: 0, y: 0, width: 0.1, height: 0.1}
    - {x: 0.2, y: 0, width: 0.1, height: 0.1}
    - {x: 0.4, y: 0, width: 0.1, height: 0.1}
`,
		"zero rate":    "detector: {sample_rate_hz: 0}\n",
		"zero length":  "export: {clip_length: 0s}\n",
		"bad yaml":     "detector: [\n",
		"bad duration": "detector: {min_gap: soon}\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Detector.Regions = []motion.Region{{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1}}
	cfg.Detector.MinGap = 2500 * time.Millisecond

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestContext(t *testing.T) {
	assert.Equal(t, defaultConfig(), FromContext(context.Background()))

	cfg := defaultConfig()
	cfg.WorkDir = "/tmp/reels"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
