// Package compose redraws translated text over a captured bitmap: the
// original glyphs are masked and inpainted away, then each translation is
// scaled and rotated into its region.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"

	"screen-translate/src/ocr"
)

// Placement pairs a detected region with its translation.
type Placement struct {
	Region ocr.Region
	Text   string
}

type Options struct {
	// Inpainter defaults to Diffusion.
	Inpainter Inpainter
	FontPath  string
	// DilateRadius covers anti-aliased glyph edges; 0 means 2 pixels.
	DilateRadius int
}

type Compositor struct {
	inpainter Inpainter
	renderer  *Renderer
	dilate    int
}

func New(opts Options) (*Compositor, error) {
	r, err := NewRenderer(opts.FontPath)
	if err != nil {
		return nil, err
	}
	inp := opts.Inpainter
	if inp == nil {
		inp = Diffusion{}
	}
	radius := opts.DilateRadius
	if radius <= 0 {
		radius = 2
	}
	return &Compositor{inpainter: inp, renderer: r, dilate: radius}, nil
}

// Compose returns a new bitmap; src is left untouched.
func (c *Compositor) Compose(ctx context.Context, src image.Image, placements []Placement) (*image.RGBA, error) {
	base := image.NewRGBA(src.Bounds())
	draw.Draw(base, base.Bounds(), src, src.Bounds().Min, draw.Src)

	regions := make([]ocr.Region, len(placements))
	for i, p := range placements {
		regions[i] = p.Region
	}
	mask := Dilate(BuildMask(base.Bounds(), regions), c.dilate)

	out, err := c.inpainter.Inpaint(ctx, base, mask)
	if err != nil {
		return nil, fmt.Errorf("inpaint: %w", err)
	}

	for _, p := range placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		// Sample the cleaned background; the original glyphs would skew it.
		col := TextColor(AverageLuminance(out, p.Region.Bounds()))
		patch := c.renderer.Render(text, col)
		pb := patch.Bounds()
		if FitScale(float64(pb.Dx()), float64(pb.Dy()), p.Region) <= 0 {
			continue
		}
		m := FitTransform(float64(pb.Dx()), float64(pb.Dy()), p.Region)
		xdraw.BiLinear.Transform(out, m, patch, pb, xdraw.Over, nil)
	}
	return out, nil
}
