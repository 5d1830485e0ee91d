package detect

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDecodeUnavailable means the source cannot hand out pixel data at
	// all. It ends the run.
	ErrDecodeUnavailable = errors.New("frame decode unavailable")
	// ErrNoFrame means the source produced nothing for one instant, e.g. a
	// seek past the last keyframe. The instant falls back to the previous
	// frame.
	ErrNoFrame = errors.New("no frame at timestamp")
	// ErrAborted is returned when the run context is cancelled. Partial
	// results are discarded.
	ErrAborted = errors.New("analysis aborted")
	// ErrSlowProcessing matches *SlowProcessingError with errors.Is.
	ErrSlowProcessing = errors.New("slow processing")
)

// SlowProcessingError reports that the first instants of a run took longer
// on average than the configured limit.
type SlowProcessingError struct {
	Average time.Duration
	Limit   time.Duration
	Frames  int
}

func (e *SlowProcessingError) Error() string {
	return fmt.Sprintf("slow processing: %s per frame over first %d frames (limit %s)",
		e.Average.Round(time.Millisecond), e.Frames, e.Limit)
}

// Is lets errors.Is(err, ErrSlowProcessing) match.
func (e *SlowProcessingError) Is(target error) bool {
	return target == ErrSlowProcessing
}
