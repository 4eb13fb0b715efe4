// Package present shows pipeline output in fyne windows and desktop
// notifications.
package present

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"screen-translate/src/logutil"
	"screen-translate/src/notification"
	"screen-translate/src/translate"
)

// Window is the result window. It implements sink.Sink; every widget
// update is marshalled onto fyne's goroutine with fyne.Do.
type Window struct {
	win      fyne.Window
	status   *widget.Label
	body     *widget.Label
	rich     *widget.RichText
	picture  *canvas.Image
	progress *widget.ProgressBarInfinite

	mu   sync.Mutex
	text strings.Builder
}

// NewWindow creates the hidden result window.
func NewWindow(app fyne.App) *Window {
	w := &Window{
		win:      app.NewWindow("Screen Translate"),
		status:   widget.NewLabel(""),
		body:     widget.NewLabel(""),
		rich:     widget.NewRichText(),
		picture:  &canvas.Image{FillMode: canvas.ImageFillContain},
		progress: widget.NewProgressBarInfinite(),
	}
	w.body.Wrapping = fyne.TextWrapWord
	w.rich.Wrapping = fyne.TextWrapWord
	w.status.TextStyle = fyne.TextStyle{Italic: true}
	w.picture.Hide()
	w.rich.Hide()
	w.progress.Hide()

	content := container.NewBorder(
		container.NewVBox(w.progress, w.status), nil, nil, nil,
		container.NewVScroll(container.NewVBox(w.body, w.rich, w.picture)),
	)
	w.win.SetContent(content)
	w.win.Resize(fyne.NewSize(420, 260))
	w.win.SetCloseIntercept(func() { w.win.Hide() })
	return w
}

func (w *Window) reset() {
	w.mu.Lock()
	w.text.Reset()
	w.mu.Unlock()
	w.body.SetText("")
	w.body.Show()
	w.rich.Hide()
	w.picture.Hide()
	w.status.SetText("")
}

func (w *Window) Begin(at image.Point) {
	log.Printf("Present: begin at (%d,%d)", at.X, at.Y)
	fyne.Do(func() {
		w.reset()
		w.status.SetText("Translating…")
		w.progress.Show()
		w.progress.Start()
		w.win.Show()
	})
}

func (w *Window) AppendText(fragment string) {
	w.mu.Lock()
	w.text.WriteString(fragment)
	full := w.text.String()
	w.mu.Unlock()
	fyne.Do(func() {
		w.body.SetText(full)
	})
}

func (w *Window) ShowResult(r translate.Result) {
	md := Markdown(r)
	log.Printf("Present: %s result: %s", r.Mode(), logutil.SanitizeForLog(r.Text()))
	fyne.Do(func() {
		w.stopProgress()
		w.body.Hide()
		w.rich.ParseMarkdown(md)
		w.rich.Show()
		w.status.SetText(r.Mode().String())
		w.win.Show()
	})
}

func (w *Window) ShowImage(img image.Image) {
	b := img.Bounds()
	fyne.Do(func() {
		w.stopProgress()
		w.body.Hide()
		w.rich.Hide()
		w.picture.Image = img
		w.picture.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
		w.picture.Show()
		w.picture.Refresh()
		w.status.SetText(fmt.Sprintf("%d×%d", b.Dx(), b.Dy()))
		w.win.Resize(fyne.NewSize(float32(b.Dx())+16, float32(b.Dy())+48))
		w.win.Show()
	})
}

func (w *Window) ShowRect(r image.Rectangle) {
	fyne.Do(func() {
		w.stopProgress()
		w.body.SetText(fmt.Sprintf("Fixed area set: %d×%d at (%d, %d)", r.Dx(), r.Dy(), r.Min.X, r.Min.Y))
		w.body.Show()
		w.win.Show()
	})
}

func (w *Window) Close() {
	fyne.Do(func() {
		w.stopProgress()
		w.win.Hide()
	})
}

func (w *Window) stopProgress() {
	w.progress.Stop()
	w.progress.Hide()
}

// Notifier sends desktop notifications through the fyne app.
type Notifier struct {
	App fyne.App
}

func (n Notifier) Notify(title, message string) {
	log.Printf("Notify: %s: %s", title, logutil.SanitizeForLog(message))
	n.App.SendNotification(fyne.NewNotification(title, notification.Summary(message)))
}
