// Package enginetest provides an in-memory engine that models media as a
// duration so export logic can be tested without ffmpeg.
package enginetest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/kikiluvv/hoopreel/internal/engine"
	"github.com/kikiluvv/hoopreel/internal/workspace"
)

const mediaPrefix = "media:"

// Media encodes a fake media file lasting seconds.
func Media(seconds float64) []byte {
	return []byte(mediaPrefix + strconv.FormatFloat(seconds, 'f', 3, 64))
}

// Duration decodes a fake media file.
func Duration(data []byte) (float64, error) {
	s := string(data)
	if !strings.HasPrefix(s, mediaPrefix) {
		return 0, fmt.Errorf("not fake media: %q", truncate(s))
	}
	return strconv.ParseFloat(strings.TrimPrefix(s, mediaPrefix), 64)
}

func truncate(s string) string {
	if len(s) > 24 {
		return s[:24] + "..."
	}
	return s
}

// Call is one recorded engine invocation.
type Call struct {
	Op   string
	Name string
}

// Fake implements engine.Engine over a workspace.Memory.
type Fake struct {
	mu sync.Mutex
	ws *workspace.Memory

	// Fail makes the named operation return the error.
	Fail map[string]error
	// Calls lists every operation in order.
	Calls []Call
	// Trims and Overlays hold every request received.
	Trims    []engine.TrimRequest
	Overlays []engine.OverlayRequest
	// PeakBytes is the largest total size the namespace reached.
	PeakBytes int
}

// New creates an empty fake engine.
func New() *Fake {
	return &Fake{ws: workspace.NewMemory(), Fail: make(map[string]error)}
}

// Names lists the files currently in the namespace.
func (f *Fake) Names() []string {
	names, _ := f.ws.Names()
	return names
}

// Count returns how many times op was called.
func (f *Fake) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *Fake) record(op, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: op, Name: name})
	if err := f.Fail[op]; err != nil {
		return &engine.Error{Op: op, Name: name, Err: err}
	}
	return nil
}

func (f *Fake) put(name string, data []byte) error {
	if err := f.ws.WriteFile(name, data); err != nil {
		return err
	}
	total := 0
	names, _ := f.ws.Names()
	for _, n := range names {
		b, _ := f.ws.ReadFile(n)
		total += len(b)
	}
	f.mu.Lock()
	f.PeakBytes = max(f.PeakBytes, total)
	f.mu.Unlock()
	return nil
}

func (f *Fake) WriteFile(name string, data []byte) error {
	if err := f.record(engine.OpWrite, name); err != nil {
		return err
	}
	return f.put(name, data)
}

func (f *Fake) ReadFile(name string) ([]byte, error) {
	if err := f.record(engine.OpRead, name); err != nil {
		return nil, err
	}
	data, err := f.ws.ReadFile(name)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpRead, Name: name, Err: err}
	}
	return data, nil
}

func (f *Fake) DeleteFile(name string) error {
	if err := f.record(engine.OpDelete, name); err != nil {
		return err
	}
	if err := f.ws.Remove(name); err != nil {
		return &engine.Error{Op: engine.OpDelete, Name: name, Err: err}
	}
	return nil
}

func (f *Fake) duration(op, name string) (float64, error) {
	data, err := f.ws.ReadFile(name)
	if err != nil {
		return 0, &engine.Error{Op: op, Name: name, Err: err}
	}
	d, err := Duration(data)
	if err != nil {
		return 0, &engine.Error{Op: op, Name: name, Err: err}
	}
	return d, nil
}

// Trim clamps the window to the input's duration.
func (f *Fake) Trim(ctx context.Context, req engine.TrimRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Trims = append(f.Trims, req)
	f.mu.Unlock()

	if err := f.record(engine.OpTrim, req.Output); err != nil {
		return err
	}
	total, err := f.duration(engine.OpTrim, req.Input)
	if err != nil {
		return err
	}
	start := req.Start.Seconds()
	out := math.Max(0, math.Min(req.Duration.Seconds(), total-start))
	return f.put(req.Output, Media(out))
}

// Concat sums the durations of every segment the manifest lists.
func (f *Fake) Concat(ctx context.Context, req engine.ConcatRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.record(engine.OpConcat, req.Output); err != nil {
		return err
	}
	manifest, err := f.ws.ReadFile(req.Manifest)
	if err != nil {
		return &engine.Error{Op: engine.OpConcat, Name: req.Manifest, Err: err}
	}

	total := 0.0
	for _, line := range strings.Split(string(manifest), "\n") {
		name, ok := strings.CutPrefix(strings.TrimSpace(line), "file '")
		if !ok {
			continue
		}
		d, err := f.duration(engine.OpConcat, strings.TrimSuffix(name, "'"))
		if err != nil {
			return err
		}
		total += d
	}
	return f.put(req.Output, Media(total))
}

// Overlay checks every counter image exists and keeps the input duration.
func (f *Fake) Overlay(ctx context.Context, req engine.OverlayRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Overlays = append(f.Overlays, req)
	f.mu.Unlock()

	if err := f.record(engine.OpOverlay, req.Output); err != nil {
		return err
	}
	for _, c := range req.Counters {
		if !f.ws.Exists(c.Image) {
			return &engine.Error{Op: engine.OpOverlay, Name: c.Image, Err: fmt.Errorf("missing overlay image")}
		}
	}
	d, err := f.duration(engine.OpOverlay, req.Input)
	if err != nil {
		return err
	}
	return f.put(req.Output, Media(d))
}

var _ engine.Engine = (*Fake)(nil)
