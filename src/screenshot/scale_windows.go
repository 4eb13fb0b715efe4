//go:build windows

package screenshot

import "github.com/lxn/win"

// ScaleFactor returns physical pixels per logical unit of the primary display.
func ScaleFactor() float64 {
	hdc := win.GetDC(0)
	if hdc == 0 {
		return 1
	}
	defer win.ReleaseDC(0, hdc)

	dpi := win.GetDeviceCaps(hdc, win.LOGPIXELSX)
	if dpi <= 0 {
		return 1
	}
	return float64(dpi) / 96
}
