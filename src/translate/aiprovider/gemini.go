package aiprovider

import (
	"context"
	"errors"
	"iter"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"screen-translate/src/translate"
)

func newGemini(cfg Config) translate.Provider {
	key, model := cfg.APIKey, cfg.Model

	return translate.Streaming(Gemini, func(ctx context.Context, req translate.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			client, err := genai.NewClient(ctx, option.WithAPIKey(key))
			if err != nil {
				yield("", err)
				return
			}
			defer client.Close()

			gm := client.GenerativeModel(model)
			gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(translate.SystemPrompt(req))}}
			gm.SetTemperature(0.2)

			it := gm.GenerateContentStream(ctx, genai.Text(translate.UserPrompt(req)))
			for {
				resp, err := it.Next()
				if errors.Is(err, iterator.Done) {
					return
				}
				if err != nil {
					var apiErr *googleapi.Error
					if errors.As(err, &apiErr) {
						err = statusError(Gemini, apiErr.Code, err)
					}
					yield("", err)
					return
				}
				for _, cand := range resp.Candidates {
					if cand.Content == nil {
						continue
					}
					for _, part := range cand.Content.Parts {
						if text, ok := part.(genai.Text); ok && text != "" {
							if !yield(string(text), nil) {
								return
							}
						}
					}
				}
			}
		}
	})
}
