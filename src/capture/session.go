// Package capture holds the region selection state machine. It has no
// window of its own: the overlay feeds it pointer and key events in
// logical units and acts on the returned Outcome.
package capture

import (
	"image"
	"math"

	"screen-translate/src/screenshot"
)

const (
	// HandleSize is the drawn size of a resize grip.
	HandleSize = 8.0
	// HandleTolerance inflates grip hit boxes beyond their drawn size.
	HandleTolerance = 5.0
	// MinSize is the smallest width or height a resize may produce.
	MinSize = 1.0
)

type OutcomeKind int

const (
	// Pending means the session is still open.
	Pending OutcomeKind = iota
	Finalized
	Cancelled
)

// Outcome is returned by every event. When Kind is Finalized either Image
// (a crop of the screen) or Rect (RectSelection intent) is set.
type Outcome struct {
	Kind   OutcomeKind
	Intent Intent
	Image  *image.RGBA
	// Rect is the selection in physical virtual-screen pixels.
	Rect image.Rectangle
}

type Options struct {
	Mode   Mode
	Intent Intent
	// Scale is physical pixels per logical unit.
	Scale float64
	// Origin is the virtual-screen position of the screen bitmap's (0,0).
	Origin image.Point
}

// Session tracks one region selection over a frozen screen bitmap.
type Session struct {
	opts   Options
	screen image.Image
	bounds Rect

	state  State
	handle Handle
	rect   Rect
	anchor Point

	grab    Point
	grabbed Rect
}

// NewSession starts a session over screen, a bitmap in physical pixels.
func NewSession(screen image.Image, opts Options) *Session {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	b := screen.Bounds()
	return &Session{
		opts:   opts,
		screen: screen,
		bounds: Rect{W: float64(b.Dx()) / opts.Scale, H: float64(b.Dy()) / opts.Scale},
	}
}

func (s *Session) State() State   { return s.state }
func (s *Session) Rect() Rect     { return s.rect }
func (s *Session) Handle() Handle { return s.handle }
func (s *Session) Intent() Intent { return s.opts.Intent }
func (s *Session) Mode() Mode     { return s.opts.Mode }

// HandleBoxes returns the hit boxes of the eight grips. They exist only
// once the selection is Done or being adjusted.
func (s *Session) HandleBoxes() map[Handle]Rect {
	if s.state != Done && s.state != Resizing && s.state != Moving {
		return nil
	}
	boxes := make(map[Handle]Rect, len(Handles))
	for _, h := range Handles {
		boxes[h] = handleBox(s.rect, h)
	}
	return boxes
}

func handleBox(r Rect, h Handle) Rect {
	c := r.HandleCenter(h)
	half := HandleSize/2 + HandleTolerance
	return Rect{X: c.X - half, Y: c.Y - half, W: 2 * half, H: 2 * half}
}

// HitTest returns the grip under p, NoHandle otherwise.
func (s *Session) HitTest(p Point) Handle {
	for _, h := range Handles {
		if handleBox(s.rect, h).Contains(p) {
			return h
		}
	}
	return NoHandle
}

func (s *Session) PointerDown(p Point) Outcome {
	p = s.clamp(p)
	switch s.state {
	case Idle:
		s.startSelecting(p)
	case Done:
		// Grips win over moving, moving wins over a fresh selection.
		if h := s.HitTest(p); h != NoHandle {
			s.state = Resizing
			s.handle = h
		} else if s.rect.Contains(p) {
			s.state = Moving
			s.grab = p
			s.grabbed = s.rect
		} else {
			s.startSelecting(p)
		}
	}
	return Outcome{}
}

func (s *Session) startSelecting(p Point) {
	s.state = Selecting
	s.handle = NoHandle
	s.anchor = p
	s.rect = Rect{X: p.X, Y: p.Y}
}

func (s *Session) PointerMove(p Point) Outcome {
	p = s.clamp(p)
	switch s.state {
	case Selecting:
		s.rect = RectFromPoints(s.anchor, p)
	case Resizing:
		s.rect = resize(s.rect, s.handle, p)
	case Moving:
		s.rect = s.move(p)
	}
	return Outcome{}
}

func (s *Session) PointerUp(p Point) Outcome {
	s.PointerMove(p)
	switch s.state {
	case Selecting:
		if s.rect.W <= 0 || s.rect.H <= 0 {
			// A click without a drag resets.
			s.state = Idle
			s.rect = Rect{}
			return Outcome{}
		}
		if s.opts.Mode == Quick {
			return s.finalize()
		}
		s.state = Done
	case Resizing, Moving:
		s.state = Done
		s.handle = NoHandle
	}
	return Outcome{}
}

// Confirm finalizes a Done selection (Enter key or the confirm button).
func (s *Session) Confirm() Outcome {
	if s.state != Done {
		return Outcome{}
	}
	return s.finalize()
}

// Cancel closes the session from any state (Escape or right click).
func (s *Session) Cancel() Outcome {
	if s.state == Closed {
		return Outcome{}
	}
	s.state = Closed
	s.handle = NoHandle
	return Outcome{Kind: Cancelled, Intent: s.opts.Intent}
}

func (s *Session) finalize() Outcome {
	s.state = Closed
	phys := s.physical()
	out := Outcome{Kind: Finalized, Intent: s.opts.Intent}

	if s.opts.Intent == RectSelection {
		out.Rect = phys.Add(s.opts.Origin)
		return out
	}

	crop := screenshot.Crop(s.screen, phys.Add(s.screen.Bounds().Min))
	if crop == nil {
		return Outcome{Kind: Cancelled, Intent: s.opts.Intent}
	}
	out.Image = crop
	out.Rect = phys.Add(s.opts.Origin)
	return out
}

// physical converts the logical rectangle to pixels relative to the
// screen bitmap. The result is never narrower or shorter than one pixel.
func (s *Session) physical() image.Rectangle {
	scale := s.opts.Scale
	x0 := int(math.Round(s.rect.X * scale))
	y0 := int(math.Round(s.rect.Y * scale))
	x1 := int(math.Round(s.rect.Right() * scale))
	y1 := int(math.Round(s.rect.Bottom() * scale))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

func (s *Session) clamp(p Point) Point {
	return Point{
		X: math.Max(s.bounds.X, math.Min(p.X, s.bounds.Right())),
		Y: math.Max(s.bounds.Y, math.Min(p.Y, s.bounds.Bottom())),
	}
}

func (s *Session) move(p Point) Rect {
	r := s.grabbed
	r.X += p.X - s.grab.X
	r.Y += p.Y - s.grab.Y
	r.X = math.Max(s.bounds.X, math.Min(r.X, s.bounds.Right()-r.W))
	r.Y = math.Max(s.bounds.Y, math.Min(r.Y, s.bounds.Bottom()-r.H))
	return r
}

// resize moves the edges owned by grip h to p. Opposite edges stay put and
// the size never drops below MinSize.
func resize(r Rect, h Handle, p Point) Rect {
	left, top, right, bottom := r.X, r.Y, r.Right(), r.Bottom()
	if h.movesLeft() {
		left = math.Min(p.X, right-MinSize)
	}
	if h.movesRight() {
		right = math.Max(p.X, left+MinSize)
	}
	if h.movesTop() {
		top = math.Min(p.Y, bottom-MinSize)
	}
	if h.movesBottom() {
		bottom = math.Max(p.Y, top+MinSize)
	}
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}
