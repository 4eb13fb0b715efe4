package eventloop

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"screen-translate/src/capture"
	"screen-translate/src/generation"
	"screen-translate/src/overlay"
	"screen-translate/src/screenshot"
	"screen-translate/src/service"
	"screen-translate/src/sink"
	"screen-translate/src/worker"
)

// Request asks the loop for one region capture.
type Request struct {
	Intent capture.Intent
	// Fixed re-captures the stored fixed area instead of opening the overlay.
	Fixed bool
}

// Suspender is paused while an overlay owns the pointer so a global
// pointer hook does not treat the drag on the overlay as a text selection.
type Suspender interface {
	Suspend()
	Resume()
}

type Options struct {
	Mode capture.Mode
	// Deadline bounds one OCR/translate/compose job; 0 means 20s.
	Deadline time.Duration
	// Workers sizes the background pool; 0 means NumCPU.
	Workers int
	// Capture grabs a screen rectangle for fixed-area requests. Defaults to
	// screenshot.CaptureRect.
	Capture func(image.Rectangle) (*image.RGBA, error)
	// Suspend, when set, is paused for the lifetime of each overlay session.
	Suspend Suspender
}

// Loop is the single-threaded coordinator for region capture requests.
// Overlay sessions run on it one at a time; the OCR and translation work
// runs on the worker pool and reports back through results.
type Loop struct {
	gen      *generation.Controller
	selector overlay.Selector
	pool     *worker.Pool
	region   *service.Region
	out      sink.Sink
	reporter *service.Reporter
	capture  func(image.Rectangle) (*image.RGBA, error)
	mode     capture.Mode
	suspend  Suspender

	requests chan Request
	results  chan result
	busy     bool

	mu    sync.Mutex
	fixed image.Rectangle
}

type result struct {
	gen    uint64
	intent capture.Intent
	out    sink.Sink
	err    error
}

func New(gen *generation.Controller, sel overlay.Selector, region *service.Region, out sink.Sink, rep *service.Reporter, opts Options) *Loop {
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	grab := opts.Capture
	if grab == nil {
		grab = screenshot.CaptureRect
	}
	return &Loop{
		gen:      gen,
		selector: sel,
		pool:     worker.New(opts.Workers, deadline),
		region:   region,
		out:      out,
		reporter: rep,
		capture:  grab,
		mode:     opts.Mode,
		suspend:  opts.Suspend,
		requests: make(chan Request, 4),
		results:  make(chan result, 1),
	}
}

// Trigger queues a request. It never blocks; a full queue drops the request.
func (l *Loop) Trigger(req Request) bool {
	select {
	case l.requests <- req:
		return true
	default:
		log.Printf("Eventloop: request queue full, dropping %s", req.Intent)
		return false
	}
}

// FixedArea returns the stored fixed capture area, empty when unset.
func (l *Loop) FixedArea() image.Rectangle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fixed
}

func (l *Loop) SetFixedArea(r image.Rectangle) {
	l.mu.Lock()
	l.fixed = r
	l.mu.Unlock()
	log.Printf("Eventloop: fixed area set to %v", r)
}

// Run processes requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.requests:
			l.handleRequest(ctx, req)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleRequest(ctx context.Context, req Request) {
	if l.busy {
		log.Printf("handleRequest: busy, skipping %s", req.Intent)
		l.reporter.Notify("Screen Translate", "Busy, please retry")
		return
	}

	g := l.gen.Advance()
	img, at, ok := l.acquire(ctx, g, req)
	if !ok {
		return
	}

	out := sink.Guard(l.gen, g, l.out)
	out.Begin(at)
	l.busy = true
	submitted := l.pool.Submit(ctx, req.Intent.String(), func(jobCtx context.Context) {
		err := l.region.Process(jobCtx, req.Intent, img, out)
		select {
		case l.results <- result{gen: g, intent: req.Intent, out: out, err: err}:
		case <-ctx.Done():
		}
	})
	if !submitted {
		l.busy = false
		out.Close()
		l.reporter.Notify("Screen Translate", "Busy, please retry")
	}
}

// acquire produces the bitmap for req. ok is false when there is nothing
// to process: the user cancelled, the request only defined the fixed area,
// or an error was already reported.
func (l *Loop) acquire(ctx context.Context, g uint64, req Request) (*image.RGBA, image.Point, bool) {
	if req.Fixed {
		rect := l.FixedArea()
		if rect.Empty() {
			l.reporter.Notify("Screen Translate", "No fixed area set. Use \"Set Fixed Area\" first.")
			return nil, image.Point{}, false
		}
		img, err := l.capture(rect)
		if err != nil {
			l.reporter.Report(g, nil, err)
			return nil, image.Point{}, false
		}
		return img, rect.Min, true
	}

	outcome, err := l.selectRegion(ctx, req.Intent)
	if err != nil {
		l.reporter.Report(g, nil, fmt.Errorf("failed to select region: %w", err))
		return nil, image.Point{}, false
	}
	if outcome.Kind != capture.Finalized {
		log.Printf("handleRequest: selection cancelled")
		return nil, image.Point{}, false
	}
	if req.Intent == capture.RectSelection {
		l.SetFixedArea(outcome.Rect)
		sink.Guard(l.gen, g, l.out).ShowRect(outcome.Rect)
		return nil, image.Point{}, false
	}
	return outcome.Image, outcome.Rect.Min, true
}

func (l *Loop) selectRegion(ctx context.Context, intent capture.Intent) (capture.Outcome, error) {
	if l.suspend != nil {
		l.suspend.Suspend()
		defer l.suspend.Resume()
	}
	return l.selector.Select(ctx, l.mode, intent)
}

func (l *Loop) handleResult(res result) {
	l.busy = false
	if res.err != nil {
		l.reporter.Report(res.gen, res.out, res.err)
		return
	}
	switch res.intent {
	case capture.CopyOriginal, capture.CopyTranslated, capture.CopyBilingual:
		res.out.Close()
		if !l.gen.Stale(res.gen) {
			l.reporter.Notify("Screen Translate", "Copied to clipboard")
		}
	}
}
