//go:build !windows

package overlay

import (
	"context"

	"screen-translate/src/capture"
)

type unsupportedSelector struct{}

func newPlatformSelector() Selector { return unsupportedSelector{} }

func (unsupportedSelector) Select(ctx context.Context, mode capture.Mode, intent capture.Intent) (capture.Outcome, error) {
	return capture.Outcome{}, ErrUnsupported
}
