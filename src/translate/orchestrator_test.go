package translate

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"
)

func fixed(text string) Provider {
	return Simple("fixed", func(ctx context.Context, req Request) (Reply, error) {
		return Reply{Text: text, DetectedLang: "en"}, nil
	})
}

// chunks streams fragments with a delay between them, honouring ctx.
func chunks(delay time.Duration, fragments ...string) Provider {
	return Streaming("chunks", func(ctx context.Context, req Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			for _, f := range fragments {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(delay):
				}
				if !yield(f, nil) {
					return
				}
			}
		}
	})
}

func TestTranslateSimple(t *testing.T) {
	o := New(fixed("Hallo Welt\n##TERMS\nWelt = world"), Options{})
	res, err := o.Translate(context.Background(), "Hello world", "auto", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Mode() != SentenceMode || res.Sentence.TranslatedText != "Hallo Welt" {
		t.Fatalf("result = %+v", res.Sentence)
	}
	if len(res.Sentence.KeyTerms) != 1 || res.DetectedLang != "en" {
		t.Fatalf("result = %+v", res)
	}
}

func TestStreamTranslateYieldsVisibleFragments(t *testing.T) {
	o := New(chunks(time.Millisecond, "Hal", "lo", "\n##TE", "RMS\nx = y"), Options{})
	var got []string
	for f, err := range o.StreamTranslate(context.Background(), "Hello", "en", "de") {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		got = append(got, f)
	}
	if joined := strings.Join(got, ""); strings.TrimSpace(joined) != "Hallo" {
		t.Fatalf("fragments = %q", got)
	}
}

func TestStreamTranslateNotRestartable(t *testing.T) {
	o := New(chunks(0, "a", "b"), Options{})
	seq := o.StreamTranslate(context.Background(), "x y", "en", "de")
	for range seq {
	}
	for _, err := range seq {
		if !errors.Is(err, ErrStreamConsumed) {
			t.Fatalf("second range err = %v", err)
		}
		return
	}
	t.Fatal("second range yielded nothing")
}

func TestStreamTranslateEarlyBreak(t *testing.T) {
	o := New(chunks(0, "a", "b", "c"), Options{})
	n := 0
	for range o.StreamTranslate(context.Background(), "x y", "en", "de") {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("n = %d", n)
	}
}

func TestTimeoutKeepsPartialOutput(t *testing.T) {
	o := New(chunks(30*time.Millisecond, "first ", "second ", "third"), Options{Timeout: 80 * time.Millisecond})
	var shown []string
	res, err := o.TranslateSelection(context.Background(), "one two three", "en", "de", func(f string) bool {
		shown = append(shown, f)
		return true
	})
	if err != nil {
		t.Fatalf("TranslateSelection: %v", err)
	}
	if len(shown) == 0 || len(shown) == 3 {
		t.Fatalf("shown = %q, want a partial stream", shown)
	}
	if !strings.HasPrefix(res.Sentence.TranslatedText, "first") {
		t.Fatalf("final = %q", res.Sentence.TranslatedText)
	}
}

func TestTimeoutWithoutOutputIsProviderError(t *testing.T) {
	o := New(chunks(time.Second, "late"), Options{Timeout: 20 * time.Millisecond})
	_, err := o.Translate(context.Background(), "a b", "en", "de")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Code != ErrorTimeout || pe.Provider != "chunks" {
		t.Fatalf("err = %v, want timeout ProviderError", err)
	}
}

func TestSimpleTimeoutIsProviderError(t *testing.T) {
	slow := Simple("slow", func(ctx context.Context, req Request) (Reply, error) {
		<-ctx.Done()
		return Reply{}, ctx.Err()
	})
	_, err := New(slow, Options{Timeout: 10 * time.Millisecond}).Translate(context.Background(), "a b", "en", "de")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Code != ErrorTimeout {
		t.Fatalf("err = %v", err)
	}
}

func TestProviderFailureIsTyped(t *testing.T) {
	cause := errors.New("boom")
	bad := Simple("bad", func(ctx context.Context, req Request) (Reply, error) { return Reply{}, cause })
	_, err := New(bad, Options{}).Translate(context.Background(), "a b", "en", "de")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Code != ErrorFailed || !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}

	auth := Simple("auth", func(ctx context.Context, req Request) (Reply, error) {
		return Reply{}, NewProviderError("auth", ErrorAuth, cause)
	})
	_, err = New(auth, Options{}).Translate(context.Background(), "a b", "en", "de")
	if !errors.As(err, &pe) || pe.Code != ErrorAuth {
		t.Fatalf("err = %v", err)
	}
}

func TestCancelledParentIsNotProviderError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(chunks(10*time.Millisecond, "x"), Options{}).Translate(ctx, "a b", "en", "de")
	var pe *ProviderError
	if errors.As(err, &pe) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestTranslateSelectionWordMode(t *testing.T) {
	var gotMode Mode
	p := Simple("dict", func(ctx context.Context, req Request) (Reply, error) {
		gotMode = req.Mode
		return Reply{Text: `{"lemma":"schema","definitions":[{"pos":"noun","meaning":"模式"}]}`}, nil
	})
	called := false
	res, err := New(p, Options{}).TranslateSelection(context.Background(), "Schema", "en", "zh-CN", func(string) bool {
		called = true
		return true
	})
	if err != nil {
		t.Fatalf("TranslateSelection: %v", err)
	}
	if gotMode != WordMode || res.Word == nil || res.Word.Lemma != "schema" {
		t.Fatalf("result = %+v mode = %v", res, gotMode)
	}
	if called {
		t.Fatal("word mode must not stream fragments")
	}
	if res.Text() != "模式" {
		t.Fatalf("Text() = %q", res.Text())
	}
}

func TestNoProvider(t *testing.T) {
	if _, err := New(Provider{}, Options{}).Translate(context.Background(), "a", "en", "de"); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := map[int]ErrorCode{401: ErrorAuth, 403: ErrorAuth, 429: ErrorRateLimited, 503: ErrorUnavailable, 400: ErrorBadResponse}
	for status, want := range tests {
		if got := CodeForStatus(status); got != want {
			t.Errorf("CodeForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
