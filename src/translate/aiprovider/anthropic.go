package aiprovider

import (
	"context"
	"errors"
	"iter"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"screen-translate/src/translate"
)

func newAnthropic(cfg Config, hc *http.Client) translate.Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	model := cfg.Model

	return translate.Streaming(Anthropic, func(ctx context.Context, req translate.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(model),
				MaxTokens: 1024,
				System:    []anthropic.TextBlockParam{{Text: translate.SystemPrompt(req)}},
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(translate.UserPrompt(req))),
				},
			})
			defer stream.Close()

			for stream.Next() {
				event := stream.Current()
				switch ev := event.AsAny().(type) {
				case anthropic.ContentBlockDeltaEvent:
					if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
						if !yield(delta.Text, nil) {
							return
						}
					}
				}
			}
			if err := stream.Err(); err != nil {
				var apiErr *anthropic.Error
				if errors.As(err, &apiErr) {
					err = statusError(Anthropic, apiErr.StatusCode, err)
				}
				yield("", err)
			}
		}
	})
}
