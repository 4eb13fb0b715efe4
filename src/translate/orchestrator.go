package translate

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"screen-translate/src/logutil"
)

// DefaultTimeout caps a single provider call.
const DefaultTimeout = 15 * time.Second

type Options struct {
	// Timeout caps each provider call. On expiry any streamed text already
	// delivered becomes the final result.
	Timeout time.Duration
}

// Orchestrator runs one injected provider. It never falls back to another
// provider on failure.
type Orchestrator struct {
	provider Provider
	timeout  time.Duration
}

func New(p Provider, opts Options) *Orchestrator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{provider: p, timeout: timeout}
}

func (o *Orchestrator) Provider() Provider { return o.provider }

// Translate returns a whole sentence-shaped result.
func (o *Orchestrator) Translate(ctx context.Context, text, source, target string) (Result, error) {
	req := o.request(text, source, target, SentenceMode)
	reply, terms, err := o.collect(ctx, req, nil)
	if err != nil {
		return Result{}, err
	}
	return sentenceResult(req.Text, reply, terms), nil
}

// StreamTranslate yields the translation as it arrives. The sequence is
// finite and can be ranged over once; a second range yields
// ErrStreamConsumed. Key terms are not part of the stream.
func (o *Orchestrator) StreamTranslate(ctx context.Context, text, source, target string) iter.Seq2[string, error] {
	req := o.request(text, source, target, SentenceMode)
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrStreamConsumed)
			return
		}
		stopped := false
		_, _, err := o.collect(ctx, req, func(fragment string) bool {
			if !yield(fragment, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

// TranslateSelection classifies text and returns a Word or Sentence
// result. In sentence mode fragments are passed to onFragment as they
// arrive; onFragment returning false stops the stream.
func (o *Orchestrator) TranslateSelection(ctx context.Context, text, source, target string, onFragment func(string) bool) (Result, error) {
	mode := Classify(text)
	req := o.request(text, source, target, mode)
	log.Printf("Translating %s via %s (%s -> %s): %s", mode, o.provider.Name(), req.Source, req.Target, logutil.SanitizeForLog(req.Text))

	if mode == WordMode {
		reply, _, err := o.collectRaw(ctx, req, nil)
		if err != nil {
			return Result{}, err
		}
		word := ParseWordResult(req.Text, reply.Text)
		return Result{Word: &word, DetectedLang: reply.DetectedLang}, nil
	}

	reply, terms, err := o.collect(ctx, req, onFragment)
	if err != nil {
		return Result{}, err
	}
	return sentenceResult(req.Text, reply, terms), nil
}

func (o *Orchestrator) request(text, source, target string, mode Mode) Request {
	return Request{
		Text:   strings.TrimSpace(text),
		Source: NormalizeLang(source),
		Target: NormalizeLang(target),
		Mode:   mode,
	}
}

func sentenceResult(source string, reply Reply, terms []KeyTerm) Result {
	return Result{
		Sentence: &SentenceResult{
			SourceText:     source,
			TranslatedText: strings.TrimSpace(reply.Text),
			KeyTerms:       terms,
		},
		DetectedLang: reply.DetectedLang,
	}
}

// collect runs the provider, hides the key-terms block from emit and
// returns the visible reply with the parsed terms.
func (o *Orchestrator) collect(ctx context.Context, req Request, emit func(string) bool) (Reply, []KeyTerm, error) {
	var (
		split   termsSplitter
		visible strings.Builder
		stopped bool
	)

	forward := func(fragment string) bool {
		shown := split.Push(fragment)
		if shown == "" {
			return true
		}
		visible.WriteString(shown)
		if emit != nil && !emit(shown) {
			stopped = true
			return false
		}
		return true
	}

	reply, _, err := o.collectRaw(ctx, req, forward)
	if err != nil {
		return Reply{}, nil, err
	}

	tail, block := split.Finish()
	if tail != "" {
		visible.WriteString(tail)
		if emit != nil && !stopped {
			emit(tail)
		}
	}
	reply.Text = visible.String()
	return reply, ParseKeyTerms(block), nil
}

// collectRaw runs the provider under the timeout. emit sees the raw
// fragments; a Simple provider produces exactly one. The bool reports
// whether the stream was cut by the timeout.
func (o *Orchestrator) collectRaw(ctx context.Context, req Request, emit func(string) bool) (Reply, bool, error) {
	if o.provider.IsZero() {
		return Reply{}, false, fmt.Errorf("translate: no provider configured")
	}
	name := o.provider.Name()

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if !o.provider.Streams() {
		reply, err := o.provider.simple(callCtx, req)
		if err != nil {
			return Reply{}, false, o.failure(ctx, callCtx, name, err)
		}
		if emit != nil && reply.Text != "" {
			emit(reply.Text)
		}
		return reply, false, nil
	}

	var (
		text      strings.Builder
		fragments int
	)
	for fragment, err := range o.provider.stream(callCtx, req) {
		if err != nil {
			if fragments > 0 && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				log.Printf("Provider %s hit the %v ceiling; keeping %d fragments as final", name, o.timeout, fragments)
				return Reply{Text: text.String()}, true, nil
			}
			return Reply{}, false, o.failure(ctx, callCtx, name, err)
		}
		if fragment == "" {
			continue
		}
		fragments++
		text.WriteString(fragment)
		if emit != nil && !emit(fragment) {
			break
		}
	}
	if ctx.Err() != nil {
		return Reply{}, false, ctx.Err()
	}
	return Reply{Text: text.String()}, false, nil
}

// failure turns a provider error into the error surfaced to callers. A
// cancelled parent context is not a provider failure.
func (o *Orchestrator) failure(parent, call context.Context, name string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return NewProviderError(name, ErrorTimeout, fmt.Errorf("no response within %v: %w", o.timeout, err))
	}
	return asProviderError(name, err)
}
