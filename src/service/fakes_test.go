package service

import (
	"context"
	"image"
	"iter"
	"sync"

	"screen-translate/src/clipboard"
	"screen-translate/src/ocr"
	"screen-translate/src/translate"
)

type captured struct {
	mu    sync.Mutex
	items []string
}

func (c *captured) Notify(title, message string) {
	c.mu.Lock()
	c.items = append(c.items, title+": "+message)
	c.mu.Unlock()
}

func (c *captured) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.items...)
}

// appCopier plays the focused application answering the copy shortcut.
type appCopier struct {
	board    *clipboard.Memory
	selected string
	before   func()
	mu       sync.Mutex
	calls    int
}

func (c *appCopier) Copy() error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.before != nil {
		c.before()
	}
	if c.selected != "" {
		c.board.Write(clipboard.FmtText, []byte(c.selected))
	}
	return nil
}

func (c *appCopier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeRecognizer struct {
	text    string
	regions []ocr.Region
	err     error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image, langHint string) (string, error) {
	return f.text, f.err
}

func (f *fakeRecognizer) RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]ocr.Region, error) {
	return f.regions, f.err
}

// prefixProvider answers every request with "T:" + text.
func prefixProvider() translate.Provider {
	return translate.Simple("fake", func(ctx context.Context, req translate.Request) (translate.Reply, error) {
		return translate.Reply{Text: "T:" + req.Text}, nil
	})
}

// streamProvider yields the given fragments, waiting on gate first when set.
func streamProvider(gate <-chan struct{}, fragments ...string) translate.Provider {
	return translate.Streaming("stream", func(ctx context.Context, req translate.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			if gate != nil {
				select {
				case <-gate:
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				}
			}
			for _, f := range fragments {
				if !yield(f, nil) {
					return
				}
			}
		}
	})
}
