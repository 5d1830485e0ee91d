package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00.0"},
		{5.25, "0:05.2"},
		{65.9, "1:05.9"},
		{600, "10:00.0"},
		{-3, "0:00.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatClock(tt.seconds))
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "4.00", FormatSeconds(4*time.Second))
	assert.Equal(t, "2.33", FormatSeconds(2333*time.Millisecond))
}

func TestVideoExtension(t *testing.T) {
	tests := map[string]string{
		"game.MP4":       "mp4",
		"clip.webm":      "webm",
		"/tmp/a/b.mkv":   "mkv",
		"recording.MOV":  "mov",
		"old.avi":        "avi",
		"archive.tar.gz": "mp4",
		"no-extension":   "mp4",
		"":               "mp4",
	}

	for name, want := range tests {
		assert.Equal(t, want, VideoExtension(name), name)
	}
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "video/webm", MIMEType("webm"))
	assert.Equal(t, "video/mp4", MIMEType("mp4"))
	assert.Equal(t, "video/mp4", MIMEType("mkv"))
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 0.0, ParseFrameRate("30"))
	assert.Equal(t, 0.0, ParseFrameRate("30/0"))
}
