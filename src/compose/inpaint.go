package compose

import (
	"context"
	"image"
	"image/color"
	"image/draw"
)

// Inpainter replaces the opaque pixels of mask with content synthesised
// from their surroundings. img is not modified.
type Inpainter interface {
	Inpaint(ctx context.Context, img *image.RGBA, mask *image.Alpha) (*image.RGBA, error)
}

// Diffusion fills the mask from its border inwards, each pixel taking the
// mean of its already known neighbours, then smooths the filled area.
type Diffusion struct {
	SmoothPasses int
}

var neighbours = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

func (d Diffusion) Inpaint(ctx context.Context, img *image.RGBA, mask *image.Alpha) (*image.RGBA, error) {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	known := make([]bool, w*h)
	var holes []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if mask.AlphaAt(b.Min.X+x, b.Min.Y+y).A == 0 {
				known[i] = true
			} else {
				holes = append(holes, i)
			}
		}
	}
	filled := append([]int(nil), holes...)

	type fill struct {
		i int
		c color.RGBA
	}
	for len(holes) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var ring []fill
		rest := holes[:0]
		for _, i := range holes {
			if c, ok := meanOf(out, known, w, h, i, b.Min); ok {
				ring = append(ring, fill{i, c})
			} else {
				rest = append(rest, i)
			}
		}
		if len(ring) == 0 {
			// Nothing known to grow from: the whole image is masked.
			break
		}
		for _, f := range ring {
			out.SetRGBA(b.Min.X+f.i%w, b.Min.Y+f.i/w, f.c)
			known[f.i] = true
		}
		holes = rest
	}

	passes := d.SmoothPasses
	if passes <= 0 {
		passes = 2
	}
	all := make([]bool, w*h)
	for i := range all {
		all[i] = true
	}
	for p := 0; p < passes; p++ {
		next := make([]color.RGBA, len(filled))
		for k, i := range filled {
			c, ok := meanOf(out, all, w, h, i, b.Min)
			if !ok {
				c = out.RGBAAt(b.Min.X+i%w, b.Min.Y+i/w)
			}
			next[k] = c
		}
		for k, i := range filled {
			out.SetRGBA(b.Min.X+i%w, b.Min.Y+i/w, next[k])
		}
	}
	return out, nil
}

func meanOf(img *image.RGBA, known []bool, w, h, i int, origin image.Point) (color.RGBA, bool) {
	x, y := i%w, i/w
	var r, g, bl, a, n uint32
	for _, d := range neighbours {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= w || ny >= h || !known[ny*w+nx] {
			continue
		}
		c := img.RGBAAt(origin.X+nx, origin.Y+ny)
		r += uint32(c.R)
		g += uint32(c.G)
		bl += uint32(c.B)
		a += uint32(c.A)
		n++
	}
	if n == 0 {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: uint8(a / n)}, true
}
