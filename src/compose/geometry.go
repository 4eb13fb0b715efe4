package compose

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/math/f64"

	"screen-translate/src/ocr"
)

// SnapDegrees is the largest rotation drawn as horizontal text.
const SnapDegrees = 10.0

// SnapAngle normalises deg to (-180, 180] and returns 0 for angles within
// SnapDegrees of horizontal.
func SnapAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	if math.Abs(deg) <= SnapDegrees {
		return 0
	}
	return deg
}

// FitScale is the uniform scale that fits a textW x textH block into the
// region without distortion.
func FitScale(textW, textH float64, region ocr.Region) float64 {
	if textW <= 0 || textH <= 0 {
		return 0
	}
	return math.Min(region.W/textW, region.H/textH)
}

// FitTransform maps text-block coordinates onto the region: move the block
// centre to the origin, scale, rotate, then move to the region centre.
func FitTransform(textW, textH float64, region ocr.Region) f64.Aff3 {
	s := FitScale(textW, textH, region)
	sin, cos := math.Sincos(SnapAngle(region.Angle) * math.Pi / 180)
	a, b := s*cos, -s*sin
	d, e := s*sin, s*cos
	hw, hh := textW/2, textH/2
	return f64.Aff3{
		a, b, region.CX - a*hw - b*hh,
		d, e, region.CY - d*hw - e*hh,
	}
}

// Apply maps p through m.
func Apply(m f64.Aff3, p f64.Vec2) f64.Vec2 {
	return f64.Vec2{
		m[0]*p[0] + m[1]*p[1] + m[2],
		m[3]*p[0] + m[4]*p[1] + m[5],
	}
}

// AverageLuminance returns the mean relative luminance (0..1) of img inside
// r. An empty intersection reads as white.
func AverageLuminance(img image.Image, r image.Rectangle) float64 {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return 1
	}
	var sum float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sum += 0.2126*float64(cr) + 0.7152*float64(cg) + 0.0722*float64(cb)
		}
	}
	return sum / float64(r.Dx()*r.Dy()) / 0xffff
}

// TextColor picks black text on light backgrounds and white on dark ones.
func TextColor(luminance float64) color.RGBA {
	if luminance > 0.5 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
