// Package tesseract is the local OCR engine backed by gosseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"screen-translate/src/ocr"
	"screen-translate/src/screenshot"
)

// Engine runs the local tesseract engine. Every call uses a fresh client;
// gosseract clients are not safe for concurrent use.
type Engine struct{}

var _ ocr.Recognizer = (*Engine)(nil)

var tesseractLangs = map[string]string{
	"en":      "eng",
	"zh":      "chi_sim",
	"zh-cn":   "chi_sim",
	"zh-hans": "chi_sim",
	"zh-tw":   "chi_tra",
	"zh-hant": "chi_tra",
	"ja":      "jpn",
	"ko":      "kor",
	"de":      "deu",
	"fr":      "fra",
	"es":      "spa",
	"it":      "ita",
	"pt":      "por",
	"ru":      "rus",
}

// tesseractLang maps a language tag to a tesseract traineddata name.
func tesseractLang(hint string) string {
	if l, ok := tesseractLangs[strings.ToLower(strings.TrimSpace(hint))]; ok {
		return l
	}
	return "eng"
}

func (e *Engine) Recognize(ctx context.Context, img image.Image, langHint string) (string, error) {
	regions, err := e.RecognizeRegions(ctx, img, langHint, false)
	if err != nil {
		return "", err
	}
	return ocr.JoinText(regions), nil
}

func (e *Engine) RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]ocr.Region, error) {
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	type result struct {
		regions []ocr.Region
		err     error
	}
	done := make(chan result, 1)
	go func() {
		regions, err := e.lines(data, tesseractLang(langHint))
		done <- result{regions, err}
	}()

	// The cgo call cannot be interrupted; on cancel its result is dropped.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		ocr.SortRegions(r.regions)
		return r.regions, nil
	}
}

func (e *Engine) lines(data []byte, lang string) ([]ocr.Region, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("tesseract language %s: %w", lang, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	regions := make([]ocr.Region, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" || b.Box.Empty() {
			continue
		}
		regions = append(regions, ocr.RegionFromRect(text, b.Box))
	}
	return regions, nil
}
