package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/tidwall/gjson"

	"screen-translate/src/llm"
	"screen-translate/src/screenshot"
)

// Vision sends the bitmap to the configured multimodal model.
type Vision struct{}

func (v *Vision) Recognize(ctx context.Context, img image.Image, langHint string) (string, error) {
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return llm.QueryVision(ctx, data, langHint)
}

func (v *Vision) RecognizeRegions(ctx context.Context, img image.Image, langHint string, rotation bool) ([]Region, error) {
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	raw, err := llm.QueryVisionRegions(ctx, data, langHint)
	if err != nil {
		return nil, err
	}
	regions, err := parseRegions(raw, rotation)
	if err != nil {
		return nil, err
	}
	SortRegions(regions)
	return regions, nil
}

// parseRegions reads the JSON array returned by the vision model.
func parseRegions(raw string, rotation bool) ([]Region, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("vision OCR returned malformed regions: %.80q", raw)
	}
	result := gjson.Parse(raw)
	if !result.IsArray() {
		return nil, fmt.Errorf("vision OCR returned %s, want an array", result.Type)
	}

	var regions []Region
	result.ForEach(func(_, item gjson.Result) bool {
		r := Region{
			Text: strings.TrimSpace(item.Get("text").String()),
			CX:   item.Get("cx").Float(),
			CY:   item.Get("cy").Float(),
			W:    item.Get("w").Float(),
			H:    item.Get("h").Float(),
		}
		if rotation {
			r.Angle = item.Get("angle").Float()
		}
		if r.Text != "" && r.W > 0 && r.H > 0 {
			regions = append(regions, r)
		}
		return true
	})
	return regions, nil
}
