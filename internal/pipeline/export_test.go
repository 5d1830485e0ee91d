package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/engine"
	"github.com/kikiluvv/hoopreel/internal/engine/enginetest"
	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
)

type memSource struct {
	name  string
	data  []byte
	reads int
}

func (m *memSource) Name() string { return m.name }

func (m *memSource) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.reads++
	return append([]byte(nil), m.data...), nil
}

func newSource(name string, seconds float64) *memSource {
	return &memSource{name: name, data: enginetest.Media(seconds)}
}

func highlightsAt(times ...float64) []*clips.Highlight {
	out := make([]*clips.Highlight, len(times))
	for i, t := range times {
		out[i] = &clips.Highlight{Timestamp: t, Confidence: 90, Enabled: true}
	}
	return out
}

func duration(t *testing.T, data []byte) float64 {
	t.Helper()
	d, err := enginetest.Duration(data)
	require.NoError(t, err)
	return d
}

// assertSingleInput checks the source is never loaded twice without being
// deleted in between.
func assertSingleInput(t *testing.T, f *enginetest.Fake, input string) {
	t.Helper()
	loaded := false
	for _, c := range f.Calls {
		if c.Name != input {
			continue
		}
		switch c.Op {
		case engine.OpWrite:
			assert.False(t, loaded, "%s written while a copy was still present", input)
			loaded = true
		case engine.OpDelete:
			loaded = false
		}
	}
	assert.False(t, loaded)
}

func TestExportStitchesWithCounters(t *testing.T) {
	f := enginetest.New()
	src := newSource("game.mp4", 60)
	events := highlightsAt(30, 2, 20, 10)
	events[2].Enabled = false

	x := NewExporter(zerolog.Nop(), f, src, DefaultExportOptions())
	out, err := x.Export(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, "video/mp4", out.MIMEType)
	assert.Equal(t, "mp4", out.Extension)
	assert.InDelta(t, 12.0, duration(t, out.Data), 1e-9)

	assert.Equal(t, 3, f.Count(engine.OpTrim))
	assert.Equal(t, 1, f.Count(engine.OpConcat))
	assert.Equal(t, 1, f.Count(engine.OpOverlay))
	assert.Equal(t, 3, src.reads)
	assert.Empty(t, f.Names(), "workspace should be empty after export")
	assertSingleInput(t, f, "input.mp4")

	require.Len(t, f.Trims, 3)
	assert.Equal(t, time.Duration(0), f.Trims[0].Start)
	assert.Equal(t, 7*time.Second, f.Trims[1].Start)
	assert.Equal(t, 27*time.Second, f.Trims[2].Start)
	for _, tr := range f.Trims {
		assert.Equal(t, 4*time.Second, tr.Duration)
		assert.Equal(t, "input.mp4", tr.Input)
		assert.Equal(t, "seg.mp4", tr.Output)
	}

	require.Len(t, f.Overlays, 1)
	ov := f.Overlays[0]
	assert.Equal(t, "tmp_in.mp4", ov.Input)
	assert.Equal(t, "final.mp4", ov.Output)
	assert.Equal(t, 26, ov.Margin)
	assert.Equal(t, []engine.Counter{
		{Image: "counter_1.png", Start: 0, End: 4 * time.Second},
		{Image: "counter_2.png", Start: 4 * time.Second, End: 8 * time.Second},
		{Image: "counter_3.png", Start: 8 * time.Second, End: 12 * time.Second},
	}, ov.Counters)
}

func TestExportClampsAtEnd(t *testing.T) {
	f := enginetest.New()
	opts := DefaultExportOptions()
	opts.Overlay = false

	x := NewExporter(zerolog.Nop(), f, newSource("game.mp4", 20), opts)
	out, err := x.Export(context.Background(), highlightsAt(5, 19))
	require.NoError(t, err)

	// 4s from 2s, then 4s clamped to the last 4s of the source
	assert.InDelta(t, 8.0, duration(t, out.Data), 1e-9)
	assert.Equal(t, 0, f.Count(engine.OpOverlay))
	assert.Equal(t, "mp4", out.Extension)
}

func TestExportSingleSegmentVerbatim(t *testing.T) {
	f := enginetest.New()
	x := NewExporter(zerolog.Nop(), f, newSource("game.webm", 60), DefaultExportOptions())

	out, err := x.Export(context.Background(), highlightsAt(12))
	require.NoError(t, err)

	assert.Equal(t, "video/webm", out.MIMEType)
	assert.Equal(t, "webm", out.Extension)
	assert.InDelta(t, 4.0, duration(t, out.Data), 1e-9)
	assert.Equal(t, 0, f.Count(engine.OpConcat))
	assert.Equal(t, 0, f.Count(engine.OpOverlay))
	assert.Empty(t, f.Names())
}

func TestExportOverlayFailureFallsBack(t *testing.T) {
	f := enginetest.New()
	f.Fail[engine.OpOverlay] = errors.New("encoder missing")

	x := NewExporter(zerolog.Nop(), f, newSource("game.webm", 60), DefaultExportOptions())
	out, err := x.Export(context.Background(), highlightsAt(10, 20))
	require.NoError(t, err)

	assert.Equal(t, "video/webm", out.MIMEType)
	assert.Equal(t, "mp4", out.Extension)
	assert.InDelta(t, 8.0, duration(t, out.Data), 1e-9)
	assert.Empty(t, f.Names(), "overlay leftovers should be cleaned up")
}

func TestExportFailures(t *testing.T) {
	for _, op := range []string{engine.OpTrim, engine.OpConcat} {
		t.Run(op, func(t *testing.T) {
			f := enginetest.New()
			f.Fail[op] = errors.New("out of memory")

			x := NewExporter(zerolog.Nop(), f, newSource("game.mp4", 60), DefaultExportOptions())
			out, err := x.Export(context.Background(), highlightsAt(10, 20, 30))
			require.Error(t, err)
			assert.Nil(t, out)

			assert.ErrorIs(t, err, ErrExportFailed)
			assert.Contains(t, err.Error(), ExportFailureMessage)

			var engErr *engine.Error
			require.ErrorAs(t, err, &engErr)
			assert.Equal(t, op, engErr.Op)

			assert.Empty(t, f.Names(), "failed export must not leave files behind")
		})
	}
}

func TestExportLogsEngineExit(t *testing.T) {
	f := enginetest.New()
	f.Fail[engine.OpConcat] = &ffmpeg.ExitError{
		Err:  errors.New("exit status 1"),
		Tail: []string{"Invalid data found when processing input"},
	}

	var buf bytes.Buffer
	x := NewExporter(zerolog.New(&buf), f, newSource("game.mp4", 60), DefaultExportOptions())
	_, err := x.Export(context.Background(), highlightsAt(10, 20))
	require.ErrorIs(t, err, ErrExportFailed)

	assert.True(t, ffmpeg.IsExitError(err))
	assert.Contains(t, buf.String(), `"engine_exit":true`)
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestExportOverlayFailureLogsEngineExit(t *testing.T) {
	f := enginetest.New()
	f.Fail[engine.OpOverlay] = errors.New("encoder missing")

	var buf bytes.Buffer
	x := NewExporter(zerolog.New(&buf), f, newSource("game.mp4", 60), DefaultExportOptions())
	_, err := x.Export(context.Background(), highlightsAt(10, 20))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"engine_exit":false`)
}

func TestExportNothingEnabled(t *testing.T) {
	events := highlightsAt(10)
	events[0].Enabled = false

	x := NewExporter(zerolog.Nop(), enginetest.New(), newSource("game.mp4", 60), DefaultExportOptions())
	_, err := x.Export(context.Background(), events)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportCancelled(t *testing.T) {
	f := enginetest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := NewExporter(zerolog.Nop(), f, newSource("game.mp4", 60), DefaultExportOptions())
	_, err := x.Export(ctx, highlightsAt(10, 20))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.Names())
}

func TestExportClip(t *testing.T) {
	f := enginetest.New()
	x := NewExporter(zerolog.Nop(), f, newSource("game.mov", 60), DefaultExportOptions())

	out, err := x.ExportClip(context.Background(), highlightsAt(2)[0])
	require.NoError(t, err)

	assert.Equal(t, "mov", out.Extension)
	assert.Equal(t, "video/mp4", out.MIMEType)
	assert.InDelta(t, 4.0, duration(t, out.Data), 1e-9)
	assert.Empty(t, f.Names())

	deleteInput, readClip := -1, -1
	for i, c := range f.Calls {
		if c.Op == engine.OpDelete && c.Name == "input.mov" {
			deleteInput = i
		}
		if c.Op == engine.OpRead && c.Name == "clip.mov" {
			readClip = i
		}
	}
	require.NotEqual(t, -1, deleteInput)
	assert.Less(t, deleteInput, readClip, "input must be gone before the clip is read")
}

func TestExportClipFailure(t *testing.T) {
	f := enginetest.New()
	f.Fail[engine.OpTrim] = errors.New("bad seek")

	x := NewExporter(zerolog.Nop(), f, newSource("game.mp4", 60), DefaultExportOptions())
	_, err := x.ExportClip(context.Background(), highlightsAt(2)[0])
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Empty(t, f.Names())
}

func TestExportNames(t *testing.T) {
	names := exportNames(2, "webm")
	assert.ElementsMatch(t, []string{
		"input.webm", "seg.webm", "concat.txt", "output.webm",
		"seg0.webm", "seg1.webm",
		"counter_1.png", "counter_2.png", "tmp_in.webm", "final.mp4",
	}, names)
}
