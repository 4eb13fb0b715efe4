// Package ocr finds text in captured bitmaps. Engines are opaque behind
// Recognizer; the vision engine lives here, tesseract in its own package
// because it needs cgo.
package ocr

import (
	"context"
	"image"
	"math"
	"slices"
	"strings"

	"golang.org/x/image/math/f64"
)

// Region is one line of detected text inside a rotated rectangle. Units
// are pixels of the recognized image; Angle is clockwise degrees.
type Region struct {
	Text   string
	CX, CY float64
	W, H   float64
	Angle  float64
}

// Polygon returns the four corners, clockwise from top-left.
func (r Region) Polygon() [4]f64.Vec2 {
	rad := r.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hw, hh := r.W/2, r.H/2
	corners := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}

	var out [4]f64.Vec2
	for i, c := range corners {
		out[i] = f64.Vec2{
			r.CX + c[0]*cos - c[1]*sin,
			r.CY + c[0]*sin + c[1]*cos,
		}
	}
	return out
}

// Bounds returns the axis-aligned box around the polygon.
func (r Region) Bounds() image.Rectangle {
	poly := r.Polygon()
	minX, minY := poly[0][0], poly[0][1]
	maxX, maxY := minX, minY
	for _, p := range poly[1:] {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	const eps = 1e-6 // absorbs sin/cos rounding at right angles
	return image.Rect(
		int(math.Floor(minX+eps)), int(math.Floor(minY+eps)),
		int(math.Ceil(maxX-eps)), int(math.Ceil(maxY-eps)),
	)
}

// RegionFromRect builds an axis-aligned region.
func RegionFromRect(text string, r image.Rectangle) Region {
	return Region{
		Text: text,
		CX:   float64(r.Min.X+r.Max.X) / 2,
		CY:   float64(r.Min.Y+r.Max.Y) / 2,
		W:    float64(r.Dx()),
		H:    float64(r.Dy()),
	}
}

// Recognizer is the OCR boundary.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, langHint string) (string, error)
	// RecognizeRegions returns regions in reading order. With rotation
	// false every Angle is 0.
	RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]Region, error)
}

// SortRegions orders regions top-to-bottom then left-to-right. Regions whose
// centres lie within half a line height of each other share a row.
func SortRegions(regions []Region) {
	if len(regions) < 2 {
		return
	}
	slices.SortStableFunc(regions, func(a, b Region) int {
		return cmpFloat(a.CY, b.CY)
	})

	start := 0
	for i := 1; i <= len(regions); i++ {
		if i < len(regions) && sameRow(regions[start], regions[i]) {
			continue
		}
		row := regions[start:i]
		slices.SortStableFunc(row, func(a, b Region) int {
			return cmpFloat(a.CX, b.CX)
		})
		start = i
	}
}

func sameRow(first, r Region) bool {
	tol := math.Min(first.H, r.H) / 2
	return math.Abs(r.CY-first.CY) <= tol
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// JoinText concatenates region texts one per line.
func JoinText(regions []Region) string {
	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		if t := strings.TrimSpace(r.Text); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}
