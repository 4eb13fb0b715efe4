// Package cvinpaint fills text masks with OpenCV's Telea inpainting.
// It needs cgo and an installed OpenCV, so it lives apart from compose.
package cvinpaint

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

// DefaultRadius is the neighbourhood OpenCV considers around each masked pixel.
const DefaultRadius = 3

// Inpainter implements compose.Inpainter.
type Inpainter struct {
	Radius float32
}

func (p Inpainter) Inpaint(ctx context.Context, img *image.RGBA, mask *image.Alpha) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}
	radius := p.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}

	// Mats need tightly packed, zero-origin buffers.
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	draw.Draw(alpha, alpha.Bounds(), mask, b.Min, draw.Src)

	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(src, &bgr, gocv.ColorRGBAToBGR)

	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, alpha.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask: %w", err)
	}
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Inpaint(bgr, m, &dst, radius, gocv.Telea)

	res, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to read inpainted image: %w", err)
	}
	out := image.NewRGBA(b)
	draw.Draw(out, b, res, image.Point{}, draw.Src)
	return out, nil
}
