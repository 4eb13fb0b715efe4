package overlay

import (
	"image"
	"math"

	"screen-translate/src/capture"
)

// Key is a key the overlay reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
	KeyEnter
)

// Cursor is the pointer shape to show over a position.
type Cursor int

const (
	CursorCross Cursor = iota
	CursorMove
	CursorSizeNWSE
	CursorSizeNESW
	CursorSizeWE
	CursorSizeNS
)

// controller feeds window events, given in physical client pixels, to a
// capture session working in logical units.
type controller struct {
	s     *capture.Session
	scale float64
}

func newController(screen image.Image, origin image.Point, scale float64, mode capture.Mode, intent capture.Intent) *controller {
	if scale <= 0 {
		scale = 1
	}
	return &controller{
		s:     capture.NewSession(screen, capture.Options{Mode: mode, Intent: intent, Scale: scale, Origin: origin}),
		scale: scale,
	}
}

func (c *controller) logical(x, y int32) capture.Point {
	return capture.Point{X: float64(x) / c.scale, Y: float64(y) / c.scale}
}

func (c *controller) down(x, y int32) capture.Outcome { return c.s.PointerDown(c.logical(x, y)) }
func (c *controller) move(x, y int32) capture.Outcome { return c.s.PointerMove(c.logical(x, y)) }
func (c *controller) up(x, y int32) capture.Outcome   { return c.s.PointerUp(c.logical(x, y)) }
func (c *controller) rightClick() capture.Outcome     { return c.s.Cancel() }

func (c *controller) key(k Key) capture.Outcome {
	switch k {
	case KeyEscape:
		return c.s.Cancel()
	case KeyEnter:
		return c.s.Confirm()
	}
	return capture.Outcome{}
}

// dragging reports whether the pointer is captured by the session.
func (c *controller) dragging() bool {
	switch c.s.State() {
	case capture.Selecting, capture.Resizing, capture.Moving:
		return true
	}
	return false
}

func (c *controller) cursorAt(x, y int32) Cursor {
	if c.s.State() != capture.Done {
		return CursorCross
	}
	p := c.logical(x, y)
	switch c.s.HitTest(p) {
	case capture.TopLeft, capture.BottomRight:
		return CursorSizeNWSE
	case capture.TopRight, capture.BottomLeft:
		return CursorSizeNESW
	case capture.Left, capture.Right:
		return CursorSizeWE
	case capture.Top, capture.Bottom:
		return CursorSizeNS
	}
	if c.s.Rect().Contains(p) {
		return CursorMove
	}
	return CursorCross
}

func (c *controller) toPhysical(r capture.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*c.scale)), int(math.Round(r.Y*c.scale)),
		int(math.Round(r.Right()*c.scale)), int(math.Round(r.Bottom()*c.scale)),
	)
}

// selection returns the rectangle to outline in client pixels.
func (c *controller) selection() (image.Rectangle, bool) {
	switch c.s.State() {
	case capture.Idle, capture.Closed:
		return image.Rectangle{}, false
	}
	r := c.s.Rect()
	if r.W <= 0 && r.H <= 0 {
		return image.Rectangle{}, false
	}
	return c.toPhysical(r), true
}

// grips returns the drawn resize grips in client pixels, without the hit
// tolerance.
func (c *controller) grips() []image.Rectangle {
	if c.s.HandleBoxes() == nil {
		return nil
	}
	r := c.s.Rect()
	out := make([]image.Rectangle, 0, len(capture.Handles))
	for _, h := range capture.Handles {
		p := r.HandleCenter(h)
		half := capture.HandleSize / 2
		out = append(out, c.toPhysical(capture.Rect{X: p.X - half, Y: p.Y - half, W: capture.HandleSize, H: capture.HandleSize}))
	}
	return out
}

func (c *controller) hint() string {
	if c.s.Intent() == capture.RectSelection {
		if c.s.Mode() == capture.Precise {
			return "Drag to define the fixed area, ENTER to confirm, ESC cancels"
		}
		return "Drag to define the fixed area, ESC cancels"
	}
	if c.s.Mode() == capture.Precise {
		if c.s.State() == capture.Done {
			return "Drag grips to adjust, ENTER to confirm, ESC cancels"
		}
		return "Drag to select, ENTER to confirm, ESC cancels"
	}
	return "Drag to select, ESC cancels"
}
