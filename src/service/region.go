package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"

	"screen-translate/src/capture"
	"screen-translate/src/clipboard"
	"screen-translate/src/compose"
	"screen-translate/src/logutil"
	"screen-translate/src/ocr"
	"screen-translate/src/screenshot"
	"screen-translate/src/sink"
	"screen-translate/src/translate"
)

// Region turns a captured bitmap into output according to its intent.
type Region struct {
	ocr        ocr.Recognizer
	translator *translate.Orchestrator
	compositor *compose.Compositor
	tx         *clipboard.Transaction

	source string
	target string
}

type RegionOptions struct {
	SourceLang string
	TargetLang string
}

func NewRegion(rec ocr.Recognizer, tr *translate.Orchestrator, comp *compose.Compositor, tx *clipboard.Transaction, opts RegionOptions) *Region {
	source := opts.SourceLang
	if source == "" {
		source = translate.AutoLang
	}
	target := opts.TargetLang
	if target == "" {
		target = "zh-CN"
	}
	return &Region{ocr: rec, translator: tr, compositor: comp, tx: tx, source: source, target: target}
}

// Process runs OCR on img and delivers the result for intent. out must
// already be guarded for the interaction. The returned error goes to the
// Reporter.
func (r *Region) Process(ctx context.Context, intent capture.Intent, img image.Image, out sink.Sink) error {
	if intent == capture.RectSelection {
		return fmt.Errorf("rect selection carries no image")
	}
	if intent == capture.CopyImageTranslated {
		return r.copyImage(ctx, img, out)
	}

	text, err := r.ocr.Recognize(ctx, img, r.source)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoText
	}
	log.Printf("Region OCR (%s): %s", intent, logutil.SanitizeForLog(text))

	switch intent {
	case capture.CopyOriginal:
		return r.writeText(ctx, out, text)

	case capture.CopyTranslated, capture.CopyBilingual:
		res, err := r.translator.Translate(ctx, text, r.source, r.target)
		if err != nil {
			return err
		}
		copied := res.Text()
		if intent == capture.CopyBilingual {
			copied = Bilingual(text, copied)
		}
		return r.writeText(ctx, out, copied)

	default:
		res, err := r.translator.TranslateSelection(ctx, text, r.source, r.target, func(fragment string) bool {
			out.AppendText(fragment)
			return true
		})
		if err != nil {
			return err
		}
		out.ShowResult(res)
		return nil
	}
}

// copyImage redraws every text line translated and puts the PNG on the clipboard.
func (r *Region) copyImage(ctx context.Context, img image.Image, out sink.Sink) error {
	regions, err := r.ocr.RecognizeRegions(ctx, img, r.source, true)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if len(regions) == 0 {
		return ErrNoText
	}

	placements := make([]compose.Placement, 0, len(regions))
	for _, reg := range regions {
		if strings.TrimSpace(reg.Text) == "" {
			continue
		}
		res, err := r.translator.Translate(ctx, reg.Text, r.source, r.target)
		if err != nil {
			return err
		}
		placements = append(placements, compose.Placement{Region: reg, Text: res.Text()})
	}
	if len(placements) == 0 {
		return ErrNoText
	}

	composed, err := r.compositor.Compose(ctx, img, placements)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	data, err := screenshot.EncodePNG(composed)
	if err != nil {
		return err
	}
	if superseded(out) {
		log.Printf("Region image discarded: superseded")
		return nil
	}
	if err := r.tx.WriteImage(ctx, data); err != nil {
		return err
	}
	out.ShowImage(composed)
	return nil
}

// writeText puts text on the clipboard unless the interaction behind out
// has been superseded.
func (r *Region) writeText(ctx context.Context, out sink.Sink, text string) error {
	if superseded(out) {
		log.Printf("Region copy discarded: superseded")
		return nil
	}
	return r.tx.WriteText(ctx, text)
}

// superseded reports whether out is guarded for a stale generation.
func superseded(out sink.Sink) bool {
	g, ok := out.(interface{ Stale() bool })
	return ok && g.Stale()
}

// Bilingual interleaves source and translated lines; when the line counts
// differ the two blocks are stacked instead.
func Bilingual(source, translated string) string {
	src := strings.Split(strings.TrimSpace(source), "\n")
	dst := strings.Split(strings.TrimSpace(translated), "\n")
	if len(src) != len(dst) {
		return strings.TrimSpace(source) + "\n\n" + strings.TrimSpace(translated)
	}
	var b strings.Builder
	for i := range src {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimSpace(src[i]))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(dst[i]))
	}
	return b.String()
}
