package capture

import "math"

// Intent says what a finished capture is for.
type Intent int

const (
	Translate Intent = iota
	CopyOriginal
	CopyTranslated
	CopyBilingual
	CopyImageTranslated
	// RectSelection defines a reusable fixed capture area; the session emits
	// the rectangle instead of pixels.
	RectSelection
)

func (i Intent) String() string {
	switch i {
	case Translate:
		return "translate"
	case CopyOriginal:
		return "copy-original"
	case CopyTranslated:
		return "copy-translated"
	case CopyBilingual:
		return "copy-bilingual"
	case CopyImageTranslated:
		return "copy-image-translated"
	case RectSelection:
		return "rect-selection"
	default:
		return "unknown"
	}
}

// ParseIntent is the inverse of Intent.String.
func ParseIntent(s string) (Intent, bool) {
	for i := Translate; i <= RectSelection; i++ {
		if i.String() == s {
			return i, true
		}
	}
	return Translate, false
}

// Mode selects whether releasing the pointer finalizes immediately.
type Mode int

const (
	Quick Mode = iota
	Precise
)

// ParseMode maps a config value to a Mode; anything but "precise" is Quick.
func ParseMode(s string) Mode {
	if s == "precise" {
		return Precise
	}
	return Quick
}

type State int

const (
	Idle State = iota
	Selecting
	Resizing
	Moving
	Done
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selecting:
		return "Selecting"
	case Resizing:
		return "Resizing"
	case Moving:
		return "Moving"
	case Done:
		return "Done"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Handle is one of the eight resize grips, or NoHandle.
type Handle int

const (
	NoHandle Handle = iota
	TopLeft
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
)

// Handles lists the grips in hit-test order.
var Handles = [...]Handle{TopLeft, Top, TopRight, Right, BottomRight, Bottom, BottomLeft, Left}

func (h Handle) movesLeft() bool   { return h == TopLeft || h == Left || h == BottomLeft }
func (h Handle) movesRight() bool  { return h == TopRight || h == Right || h == BottomRight }
func (h Handle) movesTop() bool    { return h == TopLeft || h == Top || h == TopRight }
func (h Handle) movesBottom() bool { return h == BottomLeft || h == Bottom || h == BottomRight }

// Point is a position in logical (DPI independent) units.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in logical units.
type Rect struct {
	X, Y, W, H float64
}

// RectFromPoints returns the bounding box of two points.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// HandleCenter returns the centre of grip h.
func (r Rect) HandleCenter(h Handle) Point {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	switch h {
	case TopLeft:
		return Point{r.X, r.Y}
	case Top:
		return Point{cx, r.Y}
	case TopRight:
		return Point{r.Right(), r.Y}
	case Right:
		return Point{r.Right(), cy}
	case BottomRight:
		return Point{r.Right(), r.Bottom()}
	case Bottom:
		return Point{cx, r.Bottom()}
	case BottomLeft:
		return Point{r.X, r.Bottom()}
	case Left:
		return Point{r.X, cy}
	default:
		return Point{cx, cy}
	}
}
