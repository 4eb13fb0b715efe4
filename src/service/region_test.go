package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"screen-translate/src/capture"
	"screen-translate/src/clipboard"
	"screen-translate/src/compose"
	"screen-translate/src/generation"
	"screen-translate/src/ocr"
	"screen-translate/src/sink"
	"screen-translate/src/translate"
)

func newRegion(t *testing.T, rec ocr.Recognizer, p translate.Provider) (*Region, *clipboard.Memory) {
	t.Helper()
	comp, err := compose.New(compose.Options{})
	if err != nil {
		t.Fatalf("compose.New: %v", err)
	}
	board := clipboard.NewMemory()
	tx := clipboard.NewTransaction(board, nil)
	return NewRegion(rec, translate.New(p, translate.Options{Timeout: time.Second}), comp, tx, RegionOptions{TargetLang: "de"}), board
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestRegionCopyIntents(t *testing.T) {
	cases := []struct {
		intent capture.Intent
		want   string
	}{
		{capture.CopyOriginal, "Hello\nWorld"},
		{capture.CopyTranslated, "T:Hello\nWorld"},
		{capture.CopyBilingual, "Hello\nT:Hello\nWorld\nWorld"},
	}
	for _, tc := range cases {
		t.Run(tc.intent.String(), func(t *testing.T) {
			r, board := newRegion(t, &fakeRecognizer{text: "Hello\nWorld\n"}, prefixProvider())
			if err := r.Process(context.Background(), tc.intent, blank(10, 10), sink.Discard{}); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if got := board.Text(); got != tc.want {
				t.Fatalf("clipboard = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegionTranslateStreamsToSink(t *testing.T) {
	r, board := newRegion(t, &fakeRecognizer{text: "good morning"}, streamProvider(nil, "guten ", "Morgen"))
	rec := &sink.Recorder{}
	if err := r.Process(context.Background(), capture.Translate, blank(10, 10), rec); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.Text() != "guten Morgen" {
		t.Fatalf("streamed = %q", rec.Text())
	}
	if _, ok := rec.Last("result"); !ok {
		t.Fatal("expected a final result")
	}
	if board.Writes() != 0 {
		t.Fatal("translate intent must not touch the clipboard")
	}
}

func TestRegionNoTextAndOCRFailure(t *testing.T) {
	r, _ := newRegion(t, &fakeRecognizer{text: "  \n"}, prefixProvider())
	if err := r.Process(context.Background(), capture.Translate, blank(4, 4), sink.Discard{}); !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}

	boom := errors.New("engine missing")
	r, _ = newRegion(t, &fakeRecognizer{err: boom}, prefixProvider())
	if err := r.Process(context.Background(), capture.CopyOriginal, blank(4, 4), sink.Discard{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped engine error", err)
	}
}

func TestRegionCopyImageTranslated(t *testing.T) {
	regions := []ocr.Region{{Text: "Hi", CX: 30, CY: 15, W: 40, H: 16}}
	r, board := newRegion(t, &fakeRecognizer{regions: regions}, prefixProvider())
	rec := &sink.Recorder{}

	src := blank(60, 30)
	for x := 15; x < 45; x++ {
		src.SetRGBA(x, 15, color.RGBA{A: 255})
	}
	if err := r.Process(context.Background(), capture.CopyImageTranslated, src, rec); err != nil {
		t.Fatalf("Process: %v", err)
	}

	data := board.Read(clipboard.FmtImage)
	if len(data) == 0 {
		t.Fatal("expected a PNG on the clipboard")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("clipboard image: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 30 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if _, ok := rec.Last("image"); !ok {
		t.Fatal("composited image should be shown")
	}
}

// advancingRecognizer starts a newer interaction while OCR is running.
type advancingRecognizer struct {
	fakeRecognizer
	gen *generation.Controller
}

func (a *advancingRecognizer) Recognize(ctx context.Context, img image.Image, langHint string) (string, error) {
	a.gen.Advance()
	return a.fakeRecognizer.Recognize(ctx, img, langHint)
}

func (a *advancingRecognizer) RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]ocr.Region, error) {
	a.gen.Advance()
	return a.fakeRecognizer.RecognizeRegions(ctx, img, langHint, rotation)
}

func TestRegionSupersededLeavesClipboard(t *testing.T) {
	intents := []capture.Intent{capture.CopyOriginal, capture.CopyTranslated, capture.CopyBilingual, capture.CopyImageTranslated}
	for _, intent := range intents {
		t.Run(intent.String(), func(t *testing.T) {
			gen := generation.New()
			rec := &advancingRecognizer{
				fakeRecognizer: fakeRecognizer{
					text:    "Hello",
					regions: []ocr.Region{{Text: "Hi", CX: 30, CY: 15, W: 40, H: 16}},
				},
				gen: gen,
			}
			r, board := newRegion(t, rec, prefixProvider())
			board.Write(clipboard.FmtText, []byte("KEEP"))
			writes := board.Writes()

			out := &sink.Recorder{}
			if err := r.Process(context.Background(), intent, blank(60, 30), sink.Guard(gen, gen.Advance(), out)); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if board.Writes() != writes || board.Text() != "KEEP" {
				t.Fatalf("clipboard = %q after %d writes", board.Text(), board.Writes()-writes)
			}
			if ops := out.Ops(); len(ops) != 0 {
				t.Fatalf("sink ops = %v", ops)
			}
		})
	}
}

func TestRegionRejectsRectSelection(t *testing.T) {
	r, _ := newRegion(t, &fakeRecognizer{text: "x"}, prefixProvider())
	if err := r.Process(context.Background(), capture.RectSelection, blank(2, 2), sink.Discard{}); err == nil {
		t.Fatal("rect selection has no image to process")
	}
}

func TestBilingual(t *testing.T) {
	if got := Bilingual("a\nb", "A\nB"); got != "a\nA\nb\nB" {
		t.Fatalf("interleaved = %q", got)
	}
	if got := Bilingual("a\nb", "AB"); got != "a\nb\n\nAB" {
		t.Fatalf("stacked = %q", got)
	}
}
