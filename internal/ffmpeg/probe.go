package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	BitRate    string `json:"bit_rate"`
	Duration   string `json:"duration"`
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

// ProbeArgs asks ffprobe for container and stream metadata as JSON
func ProbeArgs(path string) []string {
	return []string{"-v", "error", "-of", "json", "-show_format", "-show_streams", path}
}

// ProbeVideo reads container and stream metadata with ffprobe
func (e *Executor) ProbeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	out, err := exec.CommandContext(ctx, e.ffprobePath, ProbeArgs(path)...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	info, err := parseProbe(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	info.FilePath = path
	return info, nil
}

// parseProbe maps ffprobe JSON onto VideoInfo. Only the first video and
// audio streams count. A missing container duration (webm from browsers)
// falls back to the video stream's.
func parseProbe(data []byte) (*VideoInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bad ffprobe output: %w", err)
	}

	info := &VideoInfo{
		Duration: seconds(p.Format.Duration),
		Bitrate:  integer(p.Format.BitRate),
	}

	for _, s := range p.Streams {
		switch {
		case s.CodecType == "video" && !info.HasVideo:
			info.HasVideo = true
			info.Width, info.Height = s.Width, s.Height
			info.VideoCodec = s.CodecName
			info.FPS = util.ParseFrameRate(s.RFrameRate)
			if info.Duration <= 0 {
				info.Duration = seconds(s.Duration)
			}
		case s.CodecType == "audio" && !info.HasAudio:
			info.HasAudio = true
			info.AudioCodec = s.CodecName
			info.AudioBitrate = integer(s.BitRate)
		}
	}
	return info, nil
}

// seconds parses an ffprobe seconds field; "N/A" and garbage give 0
func seconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func integer(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
