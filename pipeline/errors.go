package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for pipeline construction.
var (
	// ErrNilProducer is returned when a Pipeline is built without a
	// variant producer.
	ErrNilProducer = errors.New("pipeline: producer is nil")

	// ErrNilScanner is returned when WarmFromScan is called without a
	// scanner.
	ErrNilScanner = errors.New("pipeline: scanner is nil")

	// ErrClosed is returned when the pipeline has been closed.
	ErrClosed = errors.New("pipeline: pipeline is closed")
)

// OriginalLoadError wraps a producer failure while loading an original
// variant, carrying the entry's display name for user-facing messages.
type OriginalLoadError struct {
	Name string
	Err  error
}

func (e *OriginalLoadError) Error() string {
	return fmt.Sprintf("pipeline: load original %q: %v", e.Name, e.Err)
}

func (e *OriginalLoadError) Unwrap() error {
	return e.Err
}

// isCancellation reports whether err is context cancellation or
// deadline expiry. Cancellation propagates unchanged through the
// pipeline, never wrapped and never logged as an error.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
