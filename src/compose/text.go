package compose

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// renderSize is the pixel size text is rasterised at before it is scaled
// into its region.
const renderSize = 32

// Renderer rasterises translated text into standalone patches.
type Renderer struct {
	face    font.Face
	ascent  fixed.Int26_6
	lineGap int
}

// NewRenderer loads the font at path, or Go Regular when path is empty.
// Go Regular has no CJK glyphs; point path at a CJK font for those targets.
func NewRenderer(path string) (*Renderer, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: renderSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	m := face.Metrics()
	return &Renderer{face: face, ascent: m.Ascent, lineGap: m.Height.Ceil()}, nil
}

// Measure returns the size of the rendered block.
func (r *Renderer) Measure(text string) (w, h int) {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		w = max(w, font.MeasureString(r.face, line).Ceil())
	}
	return w, len(lines) * r.lineGap
}

// Render draws text in col on a transparent patch of exactly Measure size.
func (r *Renderer) Render(text string, col color.Color) *image.RGBA {
	w, h := r.Measure(text)
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: r.face}
	for i, line := range strings.Split(text, "\n") {
		d.Dot = fixed.Point26_6{X: 0, Y: r.ascent + fixed.I(i*r.lineGap)}
		d.DrawString(line)
	}
	return img
}
