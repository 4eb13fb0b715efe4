// Package selection reads the text the user has highlighted under the
// pointer, borrowing the clipboard when no direct reader is available.
package selection

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"screen-translate/src/clipboard"
	"screen-translate/src/generation"
	"screen-translate/src/logutil"
	"screen-translate/src/pointer"
)

// DefaultCopyWait bounds how long the target application gets to answer
// the copy keystroke.
const DefaultCopyWait = 400 * time.Millisecond

// Payload is the text extracted for one interaction.
type Payload struct {
	Text       string
	At         pointer.Point
	Generation uint64
	SourceLang string
}

// Copier asks the focused application to copy its selection.
type Copier interface {
	Copy() error
}

// Reader returns the selected text at a point without touching the
// clipboard. ok is false when the focused control does not support it.
type Reader interface {
	SelectedText(ctx context.Context, at pointer.Point) (text string, ok bool)
}

type Options struct {
	Copier   Copier
	Reader   Reader
	CopyWait time.Duration

	// SourceLang is the configured source language, "auto" to let the
	// provider detect it.
	SourceLang string
}

type Extractor struct {
	gen      *generation.Controller
	tx       *clipboard.Transaction
	copier   Copier
	reader   Reader
	copyWait time.Duration

	sourceLang string

	mu       sync.RWMutex
	detected string
}

func NewExtractor(gen *generation.Controller, tx *clipboard.Transaction, opts Options) *Extractor {
	copier := opts.Copier
	if copier == nil {
		copier = KeystrokeCopier{}
	}
	wait := opts.CopyWait
	if wait <= 0 {
		wait = DefaultCopyWait
	}
	lang := opts.SourceLang
	if lang == "" {
		lang = "auto"
	}
	return &Extractor{
		gen:        gen,
		tx:         tx,
		copier:     copier,
		reader:     opts.Reader,
		copyWait:   wait,
		sourceLang: lang,
	}
}

// SourceLang returns the language sent with every request. A detected
// language never replaces "auto": the next selection may be in another one.
func (e *Extractor) SourceLang() string { return e.sourceLang }

// DetectedLang returns the language the provider last reported, empty
// before the first translation.
func (e *Extractor) DetectedLang() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.detected
}

// RecordDetected notes a language detected by a translation provider.
func (e *Extractor) RecordDetected(lang string) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return
	}
	e.mu.Lock()
	if e.detected != lang {
		log.Printf("Detected source language: %q -> %q", e.detected, lang)
	}
	e.detected = lang
	e.mu.Unlock()
}

// Extract returns the selected text at the point for generation gen. ok is
// false when nothing is selected, the text is blank, or a newer interaction
// started in the meantime; none of these is an error.
func (e *Extractor) Extract(ctx context.Context, gen uint64, at pointer.Point) (Payload, bool) {
	if e.gen.Stale(gen) {
		return Payload{}, false
	}

	text, err := e.read(ctx, gen, at)
	if err != nil {
		log.Printf("Selection extraction failed: %v", err)
		return Payload{}, false
	}

	if e.gen.Stale(gen) {
		log.Printf("Selection for generation %d discarded: superseded", gen)
		return Payload{}, false
	}
	if strings.TrimSpace(text) == "" {
		return Payload{}, false
	}

	log.Printf("Selected text (gen %d): %s", gen, logutil.SanitizeForLog(text))
	return Payload{
		Text:       text,
		At:         at,
		Generation: gen,
		SourceLang: e.SourceLang(),
	}, true
}

func (e *Extractor) read(ctx context.Context, gen uint64, at pointer.Point) (string, error) {
	if e.reader != nil {
		if text, ok := e.reader.SelectedText(ctx, at); ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	var text string
	err := e.tx.Run(ctx, func(b clipboard.Board) error {
		// The sentinel tells an unanswered copy apart from a copy of
		// identical text.
		sentinel := fmt.Sprintf("\x00screen-translate:%d\x00", gen)
		changed := b.Write(clipboard.FmtText, []byte(sentinel))

		if err := e.copier.Copy(); err != nil {
			return fmt.Errorf("copy keystroke: %w", err)
		}

		timer := time.NewTimer(e.copyWait)
		defer timer.Stop()
		select {
		case <-changed:
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}

		got := string(b.Read(clipboard.FmtText))
		if got != sentinel {
			text = got
		}
		return nil
	})
	return text, err
}

// IsDrag reports whether a press/release pair moved far enough to count as
// a selection gesture.
func IsDrag(from, to pointer.Point, threshold int) bool {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	return math.Hypot(dx, dy) > float64(threshold)
}
