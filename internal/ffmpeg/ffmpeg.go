package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Options selects binaries and encoder defaults for an Executor
type Options struct {
	BinaryPath string
	ProbePath  string
	Threads    int
	Preset     string
	CRF        int
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
	crf         int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegPath, err := locate("ffmpeg", opts.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := locate("ffprobe", opts.ProbePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	preset := opts.Preset
	if preset == "" {
		preset = OverlayPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		preset:      preset,
		crf:         crf,
	}, nil
}

// Path returns the resolved ffmpeg binary
func (e *Executor) Path() string {
	return e.ffmpegPath
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	// Build args with threads BEFORE other arguments
	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "info", "-nostdin"}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Str("dir", opts.Dir).
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Dir = opts.Dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newLineTail(8)

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, func(line string) {
			tail.add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()

	// Stream stdout: raw bytes to the caller's writer, or log lines
	var copyErr error
	go func() {
		defer wg.Done()
		if opts.Stdout != nil {
			_, copyErr = io.Copy(opts.Stdout, stdout)
			return
		}
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ExitError{Err: err, Tail: tail.lines()}
	}
	if copyErr != nil {
		return fmt.Errorf("failed to read ffmpeg output: %w", copyErr)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// ExitError is returned when ffmpeg exits unsuccessfully. Tail holds the
// last stderr lines, which usually name the cause.
type ExitError struct {
	Err  error
	Tail []string
}

func (e *ExitError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("ffmpeg execution failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg execution failed: %v: %s", e.Err, e.Tail[len(e.Tail)-1])
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsExitError reports whether err came from a non-zero ffmpeg exit.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			logHandler(line)
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			fmt.Sscanf(value, "%d", &progressData.Frame)
		case "fps":
			fmt.Sscanf(value, "%f", &progressData.FPS)
		case "bitrate":
			progressData.Bitrate = value
		case "out_time":
			progressData.Time = value
		case "out_time_us", "out_time_ms":
			fmt.Sscanf(value, "%d", &progressData.OutTimeMicros)
		case "speed":
			progressData.Speed = value
		case "progress":
			// End of progress block
			if progressHandler != nil {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		default:
			logHandler(line)
		}
	}
}

type lineTail struct {
	mu  sync.Mutex
	max int
	buf []string
}

func newLineTail(n int) *lineTail {
	return &lineTail{max: n}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[1:]
	}
}

func (t *lineTail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
