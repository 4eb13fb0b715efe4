// Package sink defines where pipeline output goes: streamed fragments,
// finished dictionary results, composited images and fixed-area rectangles.
package sink

import (
	"image"
	"log"

	"screen-translate/src/generation"
	"screen-translate/src/translate"
)

// Sink receives the output of one interaction. Begin opens any transient
// UI (a loading window near at); Close dismisses it. Implementations must
// be safe to call from worker goroutines.
type Sink interface {
	Begin(at image.Point)
	AppendText(fragment string)
	ShowResult(r translate.Result)
	ShowImage(img image.Image)
	ShowRect(r image.Rectangle)
	Close()
}

// Guarded forwards to a Sink only while the generation it was created for
// is still live. Output of a superseded interaction is dropped silently.
type Guarded struct {
	gen  *generation.Controller
	live uint64
	next Sink
}

// Guard wraps s for the interaction identified by live.
func Guard(gen *generation.Controller, live uint64, s Sink) *Guarded {
	return &Guarded{gen: gen, live: live, next: s}
}

// Stale reports whether the wrapped interaction has been superseded.
func (g *Guarded) Stale() bool {
	return g.gen.Stale(g.live)
}

func (g *Guarded) ok(op string) bool {
	if g.gen.Stale(g.live) {
		log.Printf("Sink: dropping %s for stale generation %d (current %d)", op, g.live, g.gen.Current())
		return false
	}
	return true
}

func (g *Guarded) Begin(at image.Point) {
	if g.ok("begin") {
		g.next.Begin(at)
	}
}

func (g *Guarded) AppendText(fragment string) {
	if g.ok("text") {
		g.next.AppendText(fragment)
	}
}

func (g *Guarded) ShowResult(r translate.Result) {
	if g.ok("result") {
		g.next.ShowResult(r)
	}
}

func (g *Guarded) ShowImage(img image.Image) {
	if g.ok("image") {
		g.next.ShowImage(img)
	}
}

func (g *Guarded) ShowRect(r image.Rectangle) {
	if g.ok("rect") {
		g.next.ShowRect(r)
	}
}

// Close only reaches the sink while live; a newer interaction owns the UI otherwise.
func (g *Guarded) Close() {
	if g.ok("close") {
		g.next.Close()
	}
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Begin(image.Point)           {}
func (Discard) AppendText(string)           {}
func (Discard) ShowResult(translate.Result) {}
func (Discard) ShowImage(image.Image)       {}
func (Discard) ShowRect(image.Rectangle)    {}
func (Discard) Close()                      {}
