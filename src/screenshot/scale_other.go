//go:build !windows

package screenshot

// ScaleFactor returns physical pixels per logical unit. Only Windows exposes
// a logical coordinate space to the overlay, so elsewhere it is 1.
func ScaleFactor() float64 { return 1 }
