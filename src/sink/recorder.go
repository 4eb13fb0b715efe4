package sink

import (
	"image"
	"strings"
	"sync"

	"screen-translate/src/translate"
)

// Call is one recorded Sink invocation.
type Call struct {
	Op     string
	Text   string
	Result translate.Result
	Image  image.Image
	Rect   image.Rectangle
	At     image.Point
}

// Recorder is an in-memory Sink used by tests and the CLI.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *Recorder) Begin(at image.Point)            { r.add(Call{Op: "begin", At: at}) }
func (r *Recorder) AppendText(fragment string)      { r.add(Call{Op: "text", Text: fragment}) }
func (r *Recorder) ShowResult(res translate.Result) { r.add(Call{Op: "result", Result: res}) }
func (r *Recorder) ShowImage(img image.Image)       { r.add(Call{Op: "image", Image: img}) }
func (r *Recorder) ShowRect(rect image.Rectangle)   { r.add(Call{Op: "rect", Rect: rect}) }
func (r *Recorder) Close()                          { r.add(Call{Op: "close"}) }

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	calls := r.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Text joins every appended fragment.
func (r *Recorder) Text() string {
	var b strings.Builder
	for _, c := range r.Calls() {
		if c.Op == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// Last returns the most recent call with the given op.
func (r *Recorder) Last(op string) (Call, bool) {
	calls := r.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Op == op {
			return calls[i], true
		}
	}
	return Call{}, false
}
