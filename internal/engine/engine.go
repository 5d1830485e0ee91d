// Package engine is the transcoding boundary: a flat working namespace plus
// the three media operations export needs.
package engine

import (
	"context"
	"fmt"
	"time"
)

// Operation names carried by Error.
const (
	OpWrite   = "write"
	OpRead    = "read"
	OpDelete  = "delete"
	OpTrim    = "trim"
	OpConcat  = "concat"
	OpOverlay = "overlay"
)

// Engine runs media operations against names in its working namespace.
type Engine interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error

	Trim(ctx context.Context, req TrimRequest) error
	Concat(ctx context.Context, req ConcatRequest) error
	Overlay(ctx context.Context, req OverlayRequest) error
}

// TrimRequest copies [Start, Start+Duration) of Input into Output without
// re-encoding.
type TrimRequest struct {
	Input    string
	Output   string
	Start    time.Duration
	Duration time.Duration
}

// ConcatRequest joins the segments listed in Manifest into Output.
type ConcatRequest struct {
	Manifest string
	Output   string
}

// Counter is a still image shown over [Start, End).
type Counter struct {
	Image string
	Start time.Duration
	End   time.Duration
}

// OverlayRequest re-encodes Input with every counter pinned at
// (Margin, Margin).
type OverlayRequest struct {
	Input    string
	Counters []Counter
	Margin   int
	Output   string
	Preset   string
	CRF      int
}

// Error records the failed operation and the name it was working on.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Name: name, Err: err}
}
