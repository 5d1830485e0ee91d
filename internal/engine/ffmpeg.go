package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
	"github.com/kikiluvv/hoopreel/internal/workspace"
)

// FFmpeg runs the engine operations with the ffmpeg binary inside a
// directory workspace.
type FFmpeg struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
	ws     *workspace.Dir
}

// NewFFmpeg creates an engine working in ws.
func NewFFmpeg(logger zerolog.Logger, exec *ffmpeg.Executor, ws *workspace.Dir) *FFmpeg {
	return &FFmpeg{
		logger: logger.With().Str("component", "engine").Str("workspace", ws.Root()).Logger(),
		exec:   exec,
		ws:     ws,
	}
}

func (f *FFmpeg) WriteFile(name string, data []byte) error {
	return wrap(OpWrite, name, f.ws.WriteFile(name, data))
}

func (f *FFmpeg) ReadFile(name string) ([]byte, error) {
	data, err := f.ws.ReadFile(name)
	return data, wrap(OpRead, name, err)
}

func (f *FFmpeg) DeleteFile(name string) error {
	return wrap(OpDelete, name, f.ws.Remove(name))
}

func (f *FFmpeg) Trim(ctx context.Context, req TrimRequest) error {
	err := f.exec.ExtractClip(ctx, req.Input, ffmpeg.ClipOptions{
		Start:    req.Start,
		Duration: req.Duration,
		Output:   req.Output,
		Dir:      f.ws.Root(),
	})
	return wrap(OpTrim, req.Output, err)
}

func (f *FFmpeg) Concat(ctx context.Context, req ConcatRequest) error {
	err := f.exec.Concat(ctx, ffmpeg.ConcatOptions{
		Manifest: req.Manifest,
		Output:   req.Output,
		Dir:      f.ws.Root(),
	})
	return wrap(OpConcat, req.Output, err)
}

func (f *FFmpeg) Overlay(ctx context.Context, req OverlayRequest) error {
	inputs := make([]ffmpeg.OverlayInput, len(req.Counters))
	for i, c := range req.Counters {
		inputs[i] = ffmpeg.OverlayInput{Image: c.Image, Start: c.Start, End: c.End}
	}

	err := f.exec.Overlay(ctx, ffmpeg.OverlayOptions{
		Input:    req.Input,
		Overlays: inputs,
		Margin:   req.Margin,
		Output:   req.Output,
		Dir:      f.ws.Root(),
		Preset:   req.Preset,
		CRF:      req.CRF,
	})
	return wrap(OpOverlay, req.Output, err)
}

// Close removes the workspace directory.
func (f *FFmpeg) Close() error {
	f.logger.Debug().Msg("removing workspace")
	return f.ws.Close()
}
