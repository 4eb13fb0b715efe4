// Package service wires extraction, translation and presentation into the
// selection-translate and region-capture pipelines.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"screen-translate/src/generation"
	"screen-translate/src/llm"
	"screen-translate/src/notification"
	"screen-translate/src/sink"
	"screen-translate/src/translate"
)

// ErrNoText means OCR found nothing to work with. It is reported as a
// short notice rather than a failure.
var ErrNoText = errors.New("no text found")

// Reporter is the single top-level error handler. Provider and compositing
// failures reach the user once per interaction; stale and cancelled work is
// dropped silently. Transient UI is always closed.
type Reporter struct {
	gen    *generation.Controller
	notify notification.Notifier
	once   *notification.Once
}

func NewReporter(gen *generation.Controller, n notification.Notifier) *Reporter {
	return &Reporter{gen: gen, notify: n, once: notification.NewOnce(n)}
}

// Report handles the outcome of interaction g. out may be nil.
func (r *Reporter) Report(g uint64, out sink.Sink, err error) {
	if err == nil {
		return
	}
	if out != nil {
		out.Close()
	}
	if r.gen.Stale(g) {
		log.Printf("Dropping error of superseded interaction %d: %v", g, err)
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Printf("Interaction %d cancelled", g)
		return
	}

	title, message := describe(err)
	log.Printf("Interaction %d failed: %v", g, err)
	r.once.NotifyFor(g, title, message)
}

// Notify reports a message that is not tied to a failing interaction.
func (r *Reporter) Notify(title, message string) {
	r.notify.Notify(title, message)
}

func describe(err error) (string, string) {
	var pe *translate.ProviderError
	switch {
	case errors.As(err, &pe):
		return "Translation failed", providerMessage(pe)
	case errors.Is(err, ErrNoText), errors.Is(err, llm.ErrNoText):
		return "Screen Translate", "No text found in the selected area"
	case errors.Is(err, context.DeadlineExceeded):
		return "Screen Translate", "Timed out"
	default:
		return "Screen Translate", err.Error()
	}
}

func providerMessage(pe *translate.ProviderError) string {
	switch pe.Code {
	case translate.ErrorTimeout:
		return fmt.Sprintf("%s did not answer in time", pe.Provider)
	case translate.ErrorAuth:
		return fmt.Sprintf("%s rejected the API key", pe.Provider)
	case translate.ErrorRateLimited:
		return fmt.Sprintf("%s is rate limiting requests, try again shortly", pe.Provider)
	case translate.ErrorUnavailable:
		return fmt.Sprintf("%s is unavailable", pe.Provider)
	default:
		return pe.Error()
	}
}
