package compose

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/math/f64"

	"screen-translate/src/ocr"
)

// BuildMask returns a mask the size of bounds with every region's polygon
// filled opaque.
func BuildMask(bounds image.Rectangle, regions []ocr.Region) *image.Alpha {
	mask := image.NewAlpha(bounds)
	opaque := color.Alpha{A: 255}
	for _, r := range regions {
		poly := r.Polygon()
		box := r.Bounds().Intersect(bounds)
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				if pointInPolygon(float64(x)+0.5, float64(y)+0.5, poly[:]) {
					mask.SetAlpha(x, y, opaque)
				}
			}
		}
	}
	return mask
}

// Dilate grows the opaque area of mask by radius pixels (square kernel).
func Dilate(mask *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		return mask
	}
	b := mask.Bounds()
	horiz := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			horiz.SetAlpha(x, y, maxAlpha(mask, x-radius, x+radius, y, y))
		}
	}
	out := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetAlpha(x, y, maxAlpha(horiz, x, x, y-radius, y+radius))
		}
	}
	return out
}

func maxAlpha(m *image.Alpha, x0, x1, y0, y1 int) color.Alpha {
	b := m.Bounds()
	x0, x1 = max(x0, b.Min.X), min(x1, b.Max.X-1)
	y0, y1 = max(y0, b.Min.Y), min(y1, b.Max.Y-1)
	var best uint8
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if a := m.AlphaAt(x, y).A; a > best {
				best = a
			}
		}
	}
	return color.Alpha{A: best}
}

func pointInPolygon(px, py float64, polygon []f64.Vec2) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi, yi := polygon[i][0], polygon[i][1]
		xj, yj := polygon[j][0], polygon[j][1]

		if pointOnSegment(px, py, xi, yi, xj, yj) {
			return true
		}

		intersects := ((yi > py) != (yj > py)) &&
			(px < (xj-xi)*(py-yi)/(yj-yi)+xi)
		if intersects {
			inside = !inside
		}
	}
	return inside
}

func pointOnSegment(px, py, x1, y1, x2, y2 float64) bool {
	const epsilon = 0.5
	cross := (px-x1)*(y2-y1) - (py-y1)*(x2-x1)
	if math.Abs(cross) > epsilon {
		return false
	}
	return px >= math.Min(x1, x2)-epsilon && px <= math.Max(x1, x2)+epsilon &&
		py >= math.Min(y1, y2)-epsilon && py <= math.Max(y1, y2)+epsilon
}
