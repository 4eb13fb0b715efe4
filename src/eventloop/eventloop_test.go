package eventloop

import (
	"context"
	"errors"
	"image"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"screen-translate/src/capture"
	"screen-translate/src/clipboard"
	"screen-translate/src/compose"
	"screen-translate/src/generation"
	"screen-translate/src/ocr"
	"screen-translate/src/pointer"
	"screen-translate/src/selection"
	"screen-translate/src/service"
	"screen-translate/src/sink"
	"screen-translate/src/translate"
)

type fakeSelector struct {
	outcome capture.Outcome
	err     error
	// during runs while the overlay would be on screen.
	during func()

	mu    sync.Mutex
	calls int
}

func (f *fakeSelector) Select(ctx context.Context, mode capture.Mode, intent capture.Intent) (capture.Outcome, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.during != nil {
		f.during()
	}
	out := f.outcome
	out.Intent = intent
	return out, f.err
}

func (f *fakeSelector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type gatedRecognizer struct {
	text string
	gate chan struct{}
}

func (g *gatedRecognizer) Recognize(ctx context.Context, img image.Image, langHint string) (string, error) {
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, nil
}

func (g *gatedRecognizer) RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]ocr.Region, error) {
	return nil, nil
}

type notes struct {
	mu    sync.Mutex
	items []string
}

func (n *notes) Notify(title, message string) {
	n.mu.Lock()
	n.items = append(n.items, message)
	n.mu.Unlock()
}

func (n *notes) has(substr string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.ContainsFunc(n.items, func(s string) bool { return strings.Contains(s, substr) })
}

type countingCopier struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCopier) Copy() error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func (c *countingCopier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type harness struct {
	gen      *generation.Controller
	loop     *Loop
	selector *fakeSelector
	board    *clipboard.Memory
	out      *sink.Recorder
	notes    *notes
	captured []image.Rectangle
	mu       sync.Mutex
}

func newHarness(t *testing.T, rec ocr.Recognizer, configure ...func(*harness, *Options)) *harness {
	t.Helper()
	gen := generation.New()
	h := &harness{gen: gen, selector: &fakeSelector{}, board: clipboard.NewMemory(), out: &sink.Recorder{}, notes: &notes{}}

	comp, err := compose.New(compose.Options{})
	if err != nil {
		t.Fatalf("compose.New: %v", err)
	}
	provider := translate.Simple("fake", func(ctx context.Context, req translate.Request) (translate.Reply, error) {
		return translate.Reply{Text: "T:" + req.Text}, nil
	})
	region := service.NewRegion(rec, translate.New(provider, translate.Options{Timeout: time.Second}), comp,
		clipboard.NewTransaction(h.board, nil), service.RegionOptions{TargetLang: "de"})

	opts := Options{
		Workers:  1,
		Deadline: 2 * time.Second,
		Capture: func(r image.Rectangle) (*image.RGBA, error) {
			h.mu.Lock()
			h.captured = append(h.captured, r)
			h.mu.Unlock()
			return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
		},
	}
	for _, fn := range configure {
		fn(h, &opts)
	}
	h.loop = New(gen, h.selector, region, h.out, service.NewReporter(gen, h.notes), opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRectSelectionStoresFixedArea(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "x"})
	area := image.Rect(10, 20, 110, 70)
	h.selector.outcome = capture.Outcome{Kind: capture.Finalized, Rect: area}

	h.loop.Trigger(Request{Intent: capture.RectSelection})
	waitFor(t, "fixed area", func() bool { return h.loop.FixedArea() == area })
	waitFor(t, "rect shown", func() bool {
		c, ok := h.out.Last("rect")
		return ok && c.Rect == area
	})
	if h.board.Writes() != 0 {
		t.Fatal("defining the area must not touch the clipboard")
	}
}

func TestFixedRequestWithoutArea(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "x"})
	h.loop.Trigger(Request{Intent: capture.Translate, Fixed: true})
	waitFor(t, "notice", func() bool { return h.notes.has("No fixed area set") })
	if h.selector.count() != 0 {
		t.Fatal("fixed requests never open the overlay")
	}
}

func TestFixedRequestCopiesOriginal(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "Hello there"})
	area := image.Rect(0, 0, 40, 20)
	h.loop.SetFixedArea(area)

	h.loop.Trigger(Request{Intent: capture.CopyOriginal, Fixed: true})
	waitFor(t, "copied notice", func() bool { return h.notes.has("Copied to clipboard") })

	if got := h.board.Text(); got != "Hello there" {
		t.Fatalf("clipboard = %q", got)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.captured) != 1 || h.captured[0] != area {
		t.Fatalf("captured = %v", h.captured)
	}
	if _, ok := h.out.Last("close"); !ok {
		t.Fatal("transient output should close after a copy")
	}
}

func TestOverlayTranslateShowsResult(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "Hello"})
	h.selector.outcome = capture.Outcome{
		Kind:  capture.Finalized,
		Image: image.NewRGBA(image.Rect(0, 0, 8, 8)),
		Rect:  image.Rect(5, 6, 13, 14),
	}

	h.loop.Trigger(Request{Intent: capture.Translate})
	waitFor(t, "result", func() bool {
		_, ok := h.out.Last("result")
		return ok
	})
	c, _ := h.out.Last("begin")
	if c.At != image.Pt(5, 6) {
		t.Fatalf("begin at %v", c.At)
	}
}

func TestOverlayDragDoesNotSupersedeCapture(t *testing.T) {
	copier := &countingCopier{}
	var sel *service.Selection
	h := newHarness(t, &gatedRecognizer{text: "Hello"}, func(h *harness, opts *Options) {
		ex := selection.NewExtractor(h.gen, clipboard.NewTransaction(clipboard.NewMemory(), nil), selection.Options{
			Copier:   copier,
			CopyWait: 20 * time.Millisecond,
		})
		provider := translate.Simple("fake", func(ctx context.Context, req translate.Request) (translate.Reply, error) {
			return translate.Reply{Text: "S:" + req.Text}, nil
		})
		sel = service.NewSelection(h.gen, ex, translate.New(provider, translate.Options{Timeout: time.Second}), h.out,
			service.NewReporter(h.gen, h.notes), service.SelectionOptions{})
		opts.Suspend = sel
	})
	h.selector.outcome = capture.Outcome{
		Kind:  capture.Finalized,
		Image: image.NewRGBA(image.Rect(0, 0, 8, 8)),
		Rect:  image.Rect(5, 6, 13, 14),
	}
	// The global hook sees the drag made on the overlay.
	h.selector.during = func() {
		ctx := context.Background()
		sel.Handle(ctx, pointer.Event{Kind: pointer.PointerDown, At: pointer.Point{X: 5, Y: 6}, When: time.Now()})
		sel.Handle(ctx, pointer.Event{Kind: pointer.PointerUp, At: pointer.Point{X: 13, Y: 14}, When: time.Now()})
	}

	h.loop.Trigger(Request{Intent: capture.Translate})
	waitFor(t, "result", func() bool {
		_, ok := h.out.Last("result")
		return ok
	})
	sel.Wait()

	if h.gen.Current() != 1 {
		t.Fatalf("generation = %d, want 1", h.gen.Current())
	}
	if copier.count() != 0 {
		t.Fatal("the overlay drag must not trigger a selection copy")
	}
	if c, _ := h.out.Last("result"); c.Result.Text() != "T:Hello" {
		t.Fatalf("result = %q, want T:Hello", c.Result.Text())
	}
}

func TestCancelledSelectionIsQuiet(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "x"})
	h.selector.outcome = capture.Outcome{Kind: capture.Cancelled}

	h.loop.Trigger(Request{Intent: capture.Translate})
	h.loop.Trigger(Request{Intent: capture.RectSelection})
	waitFor(t, "both sessions", func() bool { return h.selector.count() == 2 })
	time.Sleep(20 * time.Millisecond)

	if ops := h.out.Ops(); len(ops) != 0 {
		t.Fatalf("sink ops = %v", ops)
	}
	if !h.loop.FixedArea().Empty() {
		t.Fatal("cancelled rect selection must not set the area")
	}
}

func TestSelectorErrorIsReported(t *testing.T) {
	h := newHarness(t, &gatedRecognizer{text: "x"})
	h.selector.err = errors.New("no display")

	h.loop.Trigger(Request{Intent: capture.Translate})
	waitFor(t, "error notice", func() bool { return h.notes.has("no display") })
}

func TestBusyRejectsSecondRequest(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &gatedRecognizer{text: "Hello", gate: gate})
	h.loop.SetFixedArea(image.Rect(0, 0, 10, 10))

	h.loop.Trigger(Request{Intent: capture.CopyOriginal, Fixed: true})
	waitFor(t, "first job begins", func() bool {
		_, ok := h.out.Last("begin")
		return ok
	})
	h.loop.Trigger(Request{Intent: capture.CopyOriginal, Fixed: true})
	waitFor(t, "busy notice", func() bool { return h.notes.has("Busy") })

	close(gate)
	waitFor(t, "first job completes", func() bool { return h.notes.has("Copied to clipboard") })
}
