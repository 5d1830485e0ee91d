package ffmpeg

import (
	"errors"
	"io"
	"time"
)

// ErrNoFrame is returned when a frame request lands past the last decodable frame
var ErrNoFrame = errors.New("no frame at requested time")

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	HasVideo     bool
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame         int
	FPS           float64
	Bitrate       string
	Time          string
	OutTimeMicros int64
	Speed         string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	Dir             string
	Stdout          io.Writer
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	OverlayPreset     = "ultrafast"
	DefaultVideoCodec = "libx264"
)
