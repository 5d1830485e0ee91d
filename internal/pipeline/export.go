package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/engine"
	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
	"github.com/kikiluvv/hoopreel/internal/overlays"
	"github.com/kikiluvv/hoopreel/internal/workspace"
	"github.com/kikiluvv/hoopreel/pkg/util"
)

// ExportFailureMessage is shown to the user when trimming or stitching fails
const ExportFailureMessage = "Failed to export clips. The video may be too large — try fewer clips or a shorter video."

var (
	// ErrExportFailed wraps every fatal export error
	ErrExportFailed = errors.New(ExportFailureMessage)
	// ErrNothingToExport is returned when no highlight is enabled
	ErrNothingToExport = errors.New("no enabled highlights to export")
)

const (
	manifestName = "concat.txt"
	finalName    = "final.mp4"
)

// Exporter cuts highlight windows out of a source and stitches them into
// one reel. At most one copy of the source lives in the engine at a time.
type Exporter struct {
	logger zerolog.Logger
	engine engine.Engine
	source MediaSource
	opts   ExportOptions
}

// NewExporter creates an exporter reading from source
func NewExporter(logger zerolog.Logger, eng engine.Engine, source MediaSource, opts ExportOptions) *Exporter {
	if opts.ClipLength <= 0 {
		opts.ClipLength = DefaultExportOptions().ClipLength
	}
	return &Exporter{
		logger: logger.With().Str("component", "export").Logger(),
		engine: eng,
		source: source,
		opts:   opts,
	}
}

func (x *Exporter) ext() string {
	return util.VideoExtension(x.source.Name())
}

// window returns the trim start for a highlight at t seconds
func (x *Exporter) window(t float64) time.Duration {
	return max(0, util.Seconds(t)-x.opts.LeadIn)
}

// Export trims every enabled highlight in timestamp order and joins the
// segments. With more than one segment the result is re-encoded with an
// i/N counter over each segment when overlays are enabled; a failed overlay
// falls back to the plain merged video.
func (x *Exporter) Export(ctx context.Context, highlights []*clips.Highlight) (*Output, error) {
	events := clips.EnabledByTime(highlights)
	if len(events) == 0 {
		return nil, ErrNothingToExport
	}

	ext := x.ext()
	x.logger.Info().
		Str("source", x.source.Name()).
		Int("segments", len(events)).
		Bool("overlay", x.opts.Overlay).
		Msg("exporting highlights")

	segments, err := x.extractSegments(ctx, events, ext)
	if err != nil {
		return nil, x.fail(err, len(events), ext)
	}

	if len(segments) == 1 {
		return &Output{Data: segments[0], MIMEType: util.MIMEType(ext), Extension: ext}, nil
	}

	merged, err := x.stitch(ctx, segments, ext)
	if err != nil {
		return nil, x.fail(err, len(events), ext)
	}

	// stream-copied source container; only the name is normalised to mp4
	out := &Output{Data: merged, MIMEType: util.MIMEType(ext), Extension: util.DefaultExtension}
	if !x.opts.Overlay {
		return out, nil
	}

	final, err := x.overlay(ctx, merged, len(events), ext)
	if err != nil {
		x.logger.Warn().
			Err(err).
			Bool("engine_exit", ffmpeg.IsExitError(err)).
			Msg("counter overlay failed, exporting without counters")
		workspace.Cleanup(x.logger, x.remover(), overlayNames(len(events), ext)...)
		return out, nil
	}
	return &Output{Data: final, MIMEType: util.MIMEType("mp4"), Extension: "mp4"}, nil
}

// ExportClip trims a single highlight with no stitching or overlay
func (x *Exporter) ExportClip(ctx context.Context, h *clips.Highlight) (*Output, error) {
	ext := x.ext()
	input := "input." + ext
	output := "clip." + ext

	data, err := x.trimOne(ctx, h.Timestamp, input, output)
	if err != nil {
		workspace.Cleanup(x.logger, x.remover(), input, output)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return &Output{Data: data, MIMEType: util.MIMEType(ext), Extension: ext}, nil
}

// extractSegments runs one strictly sequential load-trim-read-delete cycle
// per event.
func (x *Exporter) extractSegments(ctx context.Context, events []*clips.Highlight, ext string) ([][]byte, error) {
	input := "input." + ext
	seg := "seg." + ext
	segments := make([][]byte, 0, len(events))

	for i, h := range events {
		data, err := x.trimOne(ctx, h.Timestamp, input, seg)
		if err != nil {
			return nil, fmt.Errorf("segment %d at %s: %w", i+1, util.FormatClock(h.Timestamp), err)
		}
		segments = append(segments, data)

		x.logger.Debug().
			Int("segment", i+1).
			Float64("timestamp", h.Timestamp).
			Int("bytes", len(data)).
			Msg("segment extracted")
	}
	return segments, nil
}

// trimOne loads the source as input, trims the window around t into output
// and returns the output bytes with both names deleted. The input is
// removed before the output is read back.
func (x *Exporter) trimOne(ctx context.Context, t float64, input, output string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := x.source.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	err = x.engine.WriteFile(input, src)
	src = nil
	if err != nil {
		return nil, err
	}

	err = x.engine.Trim(ctx, engine.TrimRequest{
		Input:    input,
		Output:   output,
		Start:    x.window(t),
		Duration: x.opts.ClipLength,
	})
	if err != nil {
		return nil, err
	}

	if err := x.engine.DeleteFile(input); err != nil {
		return nil, err
	}
	data, err := x.engine.ReadFile(output)
	if err != nil {
		return nil, err
	}
	if err := x.engine.DeleteFile(output); err != nil {
		return nil, err
	}
	return data, nil
}

// stitch concatenates the segments with stream copy
func (x *Exporter) stitch(ctx context.Context, segments [][]byte, ext string) ([]byte, error) {
	names := make([]string, len(segments))
	for i := range segments {
		names[i] = fmt.Sprintf("seg%d.%s", i, ext)
		if err := x.engine.WriteFile(names[i], segments[i]); err != nil {
			return nil, err
		}
		segments[i] = nil
	}

	if err := x.engine.WriteFile(manifestName, ffmpeg.Manifest(names)); err != nil {
		return nil, err
	}

	output := "output." + ext
	if err := x.engine.Concat(ctx, engine.ConcatRequest{Manifest: manifestName, Output: output}); err != nil {
		return nil, err
	}

	for _, name := range append([]string{manifestName}, names...) {
		if err := x.engine.DeleteFile(name); err != nil {
			return nil, err
		}
	}

	data, err := x.engine.ReadFile(output)
	if err != nil {
		return nil, err
	}
	if err := x.engine.DeleteFile(output); err != nil {
		return nil, err
	}

	x.logger.Info().Int("segments", len(names)).Int("bytes", len(data)).Msg("segments stitched")
	return data, nil
}

// overlay re-encodes merged with counter i shown over segment i
func (x *Exporter) overlay(ctx context.Context, merged []byte, n int, ext string) ([]byte, error) {
	width, height := overlays.Size(x.opts.VideoWidth, x.opts.VideoHeight)
	input := "tmp_in." + ext

	if err := x.engine.WriteFile(input, merged); err != nil {
		return nil, err
	}

	counters := make([]engine.Counter, n)
	for i := 0; i < n; i++ {
		png, err := overlays.Counter(i+1, n, width, height)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("counter_%d.png", i+1)
		if err := x.engine.WriteFile(name, png); err != nil {
			return nil, err
		}
		counters[i] = engine.Counter{
			Image: name,
			Start: time.Duration(i) * x.opts.ClipLength,
			End:   time.Duration(i+1) * x.opts.ClipLength,
		}
	}

	err := x.engine.Overlay(ctx, engine.OverlayRequest{
		Input:    input,
		Counters: counters,
		Margin:   overlays.Margin(width),
		Output:   finalName,
		Preset:   x.opts.Preset,
		CRF:      x.opts.CRF,
	})
	if err != nil {
		return nil, err
	}

	data, err := x.engine.ReadFile(finalName)
	if err != nil {
		return nil, err
	}
	workspace.Cleanup(x.logger, x.remover(), overlayNames(n, ext)...)
	return data, nil
}

func (x *Exporter) remover() workspace.Remover {
	return workspace.RemoverFunc(x.engine.DeleteFile)
}

// fail removes everything an export of n segments may have created and
// wraps err for the user.
func (x *Exporter) fail(err error, n int, ext string) error {
	x.logger.Error().
		Err(err).
		Int("segments", n).
		Bool("engine_exit", ffmpeg.IsExitError(err)).
		Msg("export failed")
	workspace.Cleanup(x.logger, x.remover(), exportNames(n, ext)...)
	return fmt.Errorf("%w: %w", ErrExportFailed, err)
}

func overlayNames(n int, ext string) []string {
	names := make([]string, 0, n+2)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("counter_%d.png", i))
	}
	return append(names, "tmp_in."+ext, finalName)
}

func exportNames(n int, ext string) []string {
	names := []string{"input." + ext, "seg." + ext, manifestName, "output." + ext}
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("seg%d.%s", i, ext))
	}
	return append(names, overlayNames(n, ext)...)
}
