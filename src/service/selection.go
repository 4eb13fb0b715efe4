package service

import (
	"context"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"screen-translate/src/generation"
	"screen-translate/src/pointer"
	"screen-translate/src/selection"
	"screen-translate/src/sink"
	"screen-translate/src/translate"
)

// DefaultDragThreshold is how far the pointer must travel between press
// and release before a selection is attempted.
const DefaultDragThreshold = 5

type SelectionOptions struct {
	TargetLang    string
	DragThreshold int
	// Disabled starts the service switched off (tray toggle).
	Disabled bool
}

// Selection translates highlighted text. It consumes pointer events on its
// own goroutine; each gesture runs in a goroutine of its own so a new press
// never waits for an older translation.
type Selection struct {
	gen        *generation.Controller
	extractor  *selection.Extractor
	translator *translate.Orchestrator
	out        sink.Sink
	reporter   *Reporter

	target    string
	threshold int
	enabled   atomic.Bool

	// Set while a capture overlay owns the pointer.
	suspended atomic.Int32
	resumedAt atomic.Int64

	// Owned by the Run goroutine.
	pressAt  pointer.Point
	pressGen uint64
	pressed  bool
	launched uint64

	wg sync.WaitGroup
}

func NewSelection(gen *generation.Controller, ex *selection.Extractor, tr *translate.Orchestrator, out sink.Sink, rep *Reporter, opts SelectionOptions) *Selection {
	threshold := opts.DragThreshold
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	target := opts.TargetLang
	if target == "" {
		target = "zh-CN"
	}
	s := &Selection{
		gen:        gen,
		extractor:  ex,
		translator: tr,
		out:        out,
		reporter:   rep,
		target:     target,
		threshold:  threshold,
	}
	s.enabled.Store(!opts.Disabled)
	return s
}

// SetEnabled switches selection translation on or off. Gestures still
// advance the generation while disabled so in-flight work is dropped.
func (s *Selection) SetEnabled(on bool) {
	s.enabled.Store(on)
	log.Printf("Selection translation enabled=%v", on)
}

func (s *Selection) Enabled() bool { return s.enabled.Load() }

// Suspend ignores pointer gestures until the matching Resume. Presses made
// while suspended neither advance the generation nor copy.
func (s *Selection) Suspend() { s.suspended.Add(1) }

func (s *Selection) Resume() {
	s.resumedAt.Store(time.Now().UnixNano())
	s.suspended.Add(-1)
}

// ignored reports whether an event stamped when belongs to a suspended
// period. Events still queued after Resume carry their original timestamp.
func (s *Selection) ignored(when time.Time) bool {
	if s.suspended.Load() > 0 {
		return true
	}
	return !when.IsZero() && when.UnixNano() < s.resumedAt.Load()
}

// Run handles events until ctx is done or events is closed, then waits
// for in-flight interactions.
func (s *Selection) Run(ctx context.Context, events <-chan pointer.Event) {
	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Handle(ctx, ev)
		}
	}
}

// Handle processes one event. Exposed so callers that own the event
// stream can feed it directly.
func (s *Selection) Handle(ctx context.Context, ev pointer.Event) {
	switch ev.Kind {
	case pointer.PointerDown:
		if s.ignored(ev.When) {
			s.pressed = false
			return
		}
		if !ev.Continuation {
			s.gen.Advance()
		}
		s.pressAt = ev.At
		s.pressGen = s.gen.Current()
		s.pressed = true

	case pointer.PointerUp:
		if !s.pressed {
			return
		}
		s.pressed = false
		if !selection.IsDrag(s.pressAt, ev.At, s.threshold) {
			return
		}
		s.launch(ctx, s.pressGen, ev.At)

	case pointer.DoubleClick:
		s.pressed = false
		if s.ignored(ev.When) {
			return
		}
		s.launch(ctx, s.gen.Current(), ev.At)
	}
}

// launch starts at most one interaction per generation: a double-click
// drag releases as both a drag and a double click.
func (s *Selection) launch(ctx context.Context, g uint64, at pointer.Point) {
	if !s.enabled.Load() || g == s.launched {
		return
	}
	s.launched = g
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(ctx, g, at)
	}()
}

func (s *Selection) process(ctx context.Context, g uint64, at pointer.Point) {
	payload, ok := s.extractor.Extract(ctx, g, at)
	if !ok {
		return
	}

	out := sink.Guard(s.gen, g, s.out)
	out.Begin(image.Pt(at.X, at.Y))

	res, err := s.translator.TranslateSelection(ctx, payload.Text, payload.SourceLang, s.target, func(fragment string) bool {
		if out.Stale() {
			return false
		}
		out.AppendText(fragment)
		return true
	})
	if out.Stale() {
		log.Printf("Translation for generation %d discarded: superseded", g)
		return
	}
	if err != nil {
		s.reporter.Report(g, out, err)
		return
	}

	if res.DetectedLang != "" {
		s.extractor.RecordDetected(res.DetectedLang)
	}
	out.ShowResult(res)
}

// Wait blocks until every launched interaction has finished.
func (s *Selection) Wait() { s.wg.Wait() }
