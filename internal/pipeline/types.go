package pipeline

import (
	"context"
	"time"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/internal/motion"
)

// MediaSource is the original video. Export reads it once per segment and
// drops the bytes right after handing them to the engine.
type MediaSource interface {
	Name() string
	ReadAll(ctx context.Context) ([]byte, error)
}

// Output is an exported video ready to download or write out
type Output struct {
	Data      []byte
	MIMEType  string
	Extension string
}

// Project is one analyzed video with its detected highlights
type Project struct {
	ID         string
	Name       string
	InputPath  string
	Duration   time.Duration
	Width      int
	Height     int
	Regions    []motion.Region
	Highlights []*clips.Highlight
	Chart      []detect.ChartSample
	Perf       detect.PerfSummary
	CreatedAt  time.Time
}

// Manager wraps the project's highlights for toggling and lookup
func (p *Project) Manager() *clips.Manager {
	return clips.NewManager(p.Highlights...)
}

// AnalyzeOptions configures analysis behavior
type AnalyzeOptions struct {
	// Regions overrides the configured detector regions when non-nil
	Regions     []motion.Region
	OnProgress  func(detect.Progress)
	OnHighlight func(*clips.Highlight)
}

// ExportOptions configures segment extraction and stitching
type ExportOptions struct {
	LeadIn     time.Duration
	ClipLength time.Duration
	Overlay    bool
	// Source frame size; counters fall back to 1280x720 when unset
	VideoWidth  int
	VideoHeight int
	Preset      string
	CRF         int
}

// DefaultExportOptions returns the stock export window and overlay settings
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		LeadIn:     3 * time.Second,
		ClipLength: 4 * time.Second,
		Overlay:    true,
	}
}
