package pointer

import "time"

// Point is a screen position in physical pixels.
type Point struct {
	X, Y int
}

// Distance returns the Manhattan distance between two points.
func (p Point) Distance(o Point) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clickTracker counts presses that fall inside the double-click window.
type clickTracker struct {
	maxTime     time.Duration
	maxDistance int

	lastPos   Point
	lastTime  time.Time
	lastCount int
}

func newClickTracker(maxTime time.Duration, maxDistance int) *clickTracker {
	return &clickTracker{
		maxTime:     maxTime,
		maxDistance: maxDistance,
	}
}

// recordClick records a press and returns its position in the sequence
// (1, 2 or 3). The count wraps back to 1 after 3.
func (t *clickTracker) recordClick(pos Point, timestamp time.Time) int {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	if t.isPartOfSequence(pos, timestamp) {
		t.lastCount++
		if t.lastCount > 3 {
			t.lastCount = 1
		}
	} else {
		t.lastCount = 1
	}

	t.lastPos = pos
	t.lastTime = timestamp
	return t.lastCount
}

func (t *clickTracker) isPartOfSequence(pos Point, timestamp time.Time) bool {
	if t.lastCount == 0 || t.lastTime.IsZero() {
		return false
	}

	// Negative elapsed time means clock skew; start over.
	elapsed := timestamp.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}

	return pos.Distance(t.lastPos) <= t.maxDistance
}

func (t *clickTracker) reset() {
	t.lastCount = 0
	t.lastTime = time.Time{}
	t.lastPos = Point{}
}
