package compose

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"golang.org/x/image/math/f64"

	"screen-translate/src/ocr"
)

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestPointInPolygon(t *testing.T) {
	poly := []f64.Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	if !pointInPolygon(5.5, 5.5, poly) {
		t.Fatal("expected center point to be inside polygon")
	}
	if pointInPolygon(-1, 5, poly) {
		t.Fatal("expected point outside polygon to be outside")
	}
	if !pointInPolygon(0, 5, poly) {
		t.Fatal("expected edge point to be treated as inside")
	}
}

func TestBuildMaskFillsRegion(t *testing.T) {
	mask := BuildMask(image.Rect(0, 0, 20, 20), []ocr.Region{{CX: 10, CY: 10, W: 6, H: 4}})
	if mask.AlphaAt(10, 10).A != 255 {
		t.Fatal("centre not masked")
	}
	if mask.AlphaAt(2, 2).A != 0 {
		t.Fatal("outside pixel masked")
	}
}

func TestDilateGrowsMask(t *testing.T) {
	mask := image.NewAlpha(image.Rect(0, 0, 9, 9))
	mask.SetAlpha(4, 4, color.Alpha{A: 255})
	out := Dilate(mask, 2)
	if out.AlphaAt(6, 6).A != 255 || out.AlphaAt(2, 2).A != 255 {
		t.Fatal("dilation too small")
	}
	if out.AlphaAt(7, 4).A != 0 {
		t.Fatal("dilation too large")
	}
	if Dilate(mask, 0) != mask {
		t.Fatal("zero radius should return the mask unchanged")
	}
}

func TestDiffusionRestoresUniformBackground(t *testing.T) {
	bg := color.RGBA{R: 200, G: 40, B: 40, A: 255}
	img := fill(30, 30, bg)
	draw.Draw(img, image.Rect(10, 10, 20, 20), image.NewUniform(color.Black), image.Point{}, draw.Src)

	mask := image.NewAlpha(img.Bounds())
	draw.Draw(mask, image.Rect(10, 10, 20, 20), image.Opaque, image.Point{}, draw.Src)

	out, err := Diffusion{}.Inpaint(context.Background(), img, mask)
	if err != nil {
		t.Fatalf("Inpaint: %v", err)
	}
	if got := out.RGBAAt(15, 15); got != bg {
		t.Fatalf("centre = %#v, want %#v", got, bg)
	}
	if img.RGBAAt(15, 15) != (color.RGBA{A: 255}) {
		t.Fatal("source image modified")
	}
}

func TestDiffusionHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img := fill(4, 4, color.RGBA{A: 255})
	mask := image.NewAlpha(img.Bounds())
	mask.SetAlpha(1, 1, color.Alpha{A: 255})
	if _, err := (Diffusion{}).Inpaint(ctx, img, mask); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTextColorContrast(t *testing.T) {
	white := fill(4, 4, color.RGBA{255, 255, 255, 255})
	black := fill(4, 4, color.RGBA{0, 0, 0, 255})
	if c := TextColor(AverageLuminance(white, white.Bounds())); c != (color.RGBA{A: 255}) {
		t.Fatalf("on white: %#v", c)
	}
	if c := TextColor(AverageLuminance(black, black.Bounds())); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("on black: %#v", c)
	}
}

func TestSnapAngle(t *testing.T) {
	tests := map[float64]float64{
		0: 0, 9.9: 0, -10: 0, 10.5: 10.5, 45: 45, 355: 0, -350: 0, 190: -170,
	}
	for in, want := range tests {
		if got := SnapAngle(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("SnapAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func near(a, b f64.Vec2) bool {
	return math.Abs(a[0]-b[0]) < 1e-9 && math.Abs(a[1]-b[1]) < 1e-9
}

func TestFitTransformAxisAligned(t *testing.T) {
	region := ocr.Region{CX: 100, CY: 50, W: 80, H: 20}
	m := FitTransform(40, 20, region)

	// width-bound: s = min(80/40, 20/20) = 1
	if got := Apply(m, f64.Vec2{20, 10}); !near(got, f64.Vec2{100, 50}) {
		t.Fatalf("centre -> %v", got)
	}
	if got := Apply(m, f64.Vec2{0, 0}); !near(got, f64.Vec2{80, 40}) {
		t.Fatalf("origin -> %v", got)
	}
}

func TestFitTransformUniformScale(t *testing.T) {
	region := ocr.Region{CX: 0, CY: 0, W: 100, H: 10}
	if s := FitScale(50, 10, region); s != 1 {
		t.Fatalf("scale = %v, want 1 (height bound)", s)
	}
	m := FitTransform(50, 10, region)
	if m[0] != m[4] {
		t.Fatalf("non-uniform scale: %v", m)
	}
}

func TestFitTransformSnapsSmallRotation(t *testing.T) {
	flat := FitTransform(10, 10, ocr.Region{CX: 5, CY: 5, W: 10, H: 10})
	tilted := FitTransform(10, 10, ocr.Region{CX: 5, CY: 5, W: 10, H: 10, Angle: 7})
	if flat != tilted {
		t.Fatalf("7 degrees not snapped: %v vs %v", flat, tilted)
	}
}

func TestFitTransformRotates(t *testing.T) {
	m := FitTransform(10, 2, ocr.Region{CX: 0, CY: 0, W: 10, H: 2, Angle: 90})
	// The right end of the text block points down after a clockwise turn.
	if got := Apply(m, f64.Vec2{10, 1}); !near(got, f64.Vec2{0, 5}) {
		t.Fatalf("right edge -> %v", got)
	}
}

func TestComposeReplacesText(t *testing.T) {
	src := fill(200, 80, color.RGBA{255, 255, 255, 255})
	region := ocr.Region{CX: 100, CY: 40, W: 120, H: 30}
	draw.Draw(src, region.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Compose(context.Background(), src, []Placement{{Region: region, Text: "Hallo"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if lum := AverageLuminance(out, region.Bounds()); lum < 0.5 {
		t.Fatalf("region luminance = %v; original text not removed", lum)
	}
	dark := false
	b := region.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !dark; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if out.RGBAAt(x, y).R < 100 {
				dark = true
				break
			}
		}
	}
	if !dark {
		t.Fatal("no translated text drawn")
	}
	if out.RGBAAt(5, 5) != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal("pixels outside regions changed")
	}
	if src.RGBAAt(100, 40) != (color.RGBA{A: 255}) {
		t.Fatal("source modified")
	}
}

func TestRendererMeasure(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	w1, h1 := r.Measure("ab")
	w2, h2 := r.Measure("abab\nx")
	if w2 <= w1 || h2 != 2*h1 {
		t.Fatalf("Measure: (%d,%d) (%d,%d)", w1, h1, w2, h2)
	}
	if _, err := NewRenderer("/nonexistent/font.ttf"); err == nil {
		t.Fatal("expected error for missing font")
	}
}
