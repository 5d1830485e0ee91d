package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/hoopreel/internal/config"
	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/internal/engine"
	"github.com/kikiluvv/hoopreel/internal/ffmpeg"
	"github.com/kikiluvv/hoopreel/internal/video"
	"github.com/kikiluvv/hoopreel/internal/workspace"
)

// Pipeline orchestrates analysis and export of a video file
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	ffmpeg *ffmpeg.Executor
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, appCfg *config.Config) (*Pipeline, error) {
	if appCfg == nil {
		appCfg = config.Default()
	}

	// Initialize ffmpeg executor
	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		BinaryPath: appCfg.FFmpeg.BinaryPath,
		ProbePath:  appCfg.FFmpeg.FFprobePath,
		Threads:    appCfg.FFmpeg.Threads,
		Preset:     appCfg.FFmpeg.Preset,
		CRF:        appCfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	logger = logger.With().Str("component", "pipeline").Logger()
	logger.Debug().Str("ffmpeg", ffmpegExec.Path()).Msg("ffmpeg located")

	return &Pipeline{
		logger: logger,
		config: appCfg,
		ffmpeg: ffmpegExec,
	}, nil
}

// DetectorConfig maps the application config onto detector settings
func DetectorConfig(appCfg *config.Config) detect.Config {
	d := appCfg.Detector
	cfg := detect.DefaultConfig()
	cfg.SampleRateHz = d.SampleRateHz
	cfg.MinGap = d.MinGap
	cfg.Regions = d.Regions
	cfg.AnalysisWidth = d.AnalysisWidth
	cfg.AnalysisHeight = d.AnalysisHeight
	cfg.SeekTimeout = d.SeekTimeout
	cfg.SlowFrameThreshold = d.SlowFrameThreshold
	return cfg
}

// ExportConfig maps the application config onto export settings
func ExportConfig(appCfg *config.Config) ExportOptions {
	return ExportOptions{
		LeadIn:     appCfg.Export.LeadIn,
		ClipLength: appCfg.Export.ClipLength,
		Overlay:    appCfg.Export.Overlay,
		Preset:     appCfg.FFmpeg.Preset,
		CRF:        appCfg.FFmpeg.CRF,
	}
}

// Analyze runs motion detection over input and returns a new project
func (p *Pipeline) Analyze(ctx context.Context, input string, opts AnalyzeOptions) (*Project, error) {
	if input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}

	p.logger.Info().Str("input", input).Msg("starting analysis pipeline")

	cfg := DetectorConfig(p.config)
	if opts.Regions != nil {
		cfg.Regions = opts.Regions
	}

	source, err := video.NewFrameSource(ctx, p.logger, p.ffmpeg, input, cfg.AnalysisWidth, cfg.AnalysisHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}

	build := func(abortOnSlow bool) Runner {
		runCfg := cfg
		runCfg.AbortOnSlow = abortOnSlow
		a := detect.NewAnalyzer(p.logger, source, runCfg)
		a.OnProgress = opts.OnProgress
		a.OnHighlight = opts.OnHighlight
		return a
	}

	res, err := AnalyzeWithRetry(ctx, p.logger, p.config.Detector.MaxSlowRetries, build, source.Warm)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	width, height := source.Dimensions()
	project := &Project{
		ID:         uuid.NewString(),
		Name:       filepath.Base(input),
		InputPath:  input,
		Duration:   source.Duration(),
		Width:      width,
		Height:     height,
		Regions:    cfg.Regions,
		Highlights: res.Highlights,
		Chart:      res.Chart,
		Perf:       res.Perf.Summary(),
		CreatedAt:  time.Now(),
	}

	p.logger.Info().
		Str("project", project.ID).
		Int("highlights", len(project.Highlights)).
		Object("perf", project.Perf).
		Msg("analysis pipeline complete")

	return project, nil
}

// newExporter opens a fresh workspace for one export. The returned close
// func removes it.
func (p *Pipeline) newExporter(project *Project, opts ExportOptions) (*Exporter, func(), error) {
	ws, err := workspace.NewTempDir(p.config.TempDir)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.NewFFmpeg(p.logger, p.ffmpeg, ws)

	opts.VideoWidth, opts.VideoHeight = project.Width, project.Height
	x := NewExporter(p.logger, eng, video.NewFile(project.InputPath), opts)

	return x, func() {
		if err := eng.Close(); err != nil {
			p.logger.Warn().Err(err).Str("workspace", ws.Root()).Msg("failed to remove workspace")
		}
	}, nil
}

// Export stitches the project's enabled highlights into one reel
func (p *Pipeline) Export(ctx context.Context, project *Project, opts ExportOptions) (*Output, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	x, closeFn, err := p.newExporter(project, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return x.Export(ctx, project.Highlights)
}

// ExportClip exports the nth (1-based) highlight on its own
func (p *Pipeline) ExportClip(ctx context.Context, project *Project, n int, opts ExportOptions) (*Output, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	h := project.Manager().Get(n)
	if h == nil {
		return nil, fmt.Errorf("highlight %d not found", n)
	}

	x, closeFn, err := p.newExporter(project, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return x.ExportClip(ctx, h)
}

var (
	_ Runner      = (*detect.Analyzer)(nil)
	_ MediaSource = (*video.File)(nil)
)
