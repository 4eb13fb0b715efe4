package overlay

import (
	"context"
	"errors"

	"screen-translate/src/capture"
)

var (
	// ErrUnsupported is returned where no overlay window exists for the platform.
	ErrUnsupported = errors.New("interactive region selection not implemented for this platform")
	// ErrBusy is returned when a selection is already on screen.
	ErrBusy = errors.New("region selection already in progress")
)

// Selector runs one region capture session over a frozen screenshot.
// The call blocks until the session finalizes or is cancelled; a cancelled
// session returns an Outcome of kind capture.Cancelled and a nil error.
type Selector interface {
	Select(ctx context.Context, mode capture.Mode, intent capture.Intent) (capture.Outcome, error)
}

// NewSelector returns the platform implementation.
func NewSelector() Selector {
	return newPlatformSelector()
}
