package aiprovider

import (
	"context"
	"errors"
	"iter"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"screen-translate/src/translate"
)

// newOpenAI serves both OpenAI and OpenRouter, which speaks the same API.
func newOpenAI(cfg Config, hc *http.Client) translate.Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Name == OpenRouter {
		opts = append(opts, option.WithHeader("X-Title", "Screen Translate"))
	}
	client := openai.NewClient(opts...)
	name, model := cfg.Name, cfg.Model

	return translate.Streaming(name, func(ctx context.Context, req translate.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			stream := client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(translate.SystemPrompt(req)),
					openai.UserMessage(translate.UserPrompt(req)),
				},
				Temperature: openai.Float(0.2),
			})
			defer stream.Close()

			for stream.Next() {
				chunk := stream.Current()
				if len(chunk.Choices) == 0 {
					continue
				}
				if delta := chunk.Choices[0].Delta.Content; delta != "" {
					if !yield(delta, nil) {
						return
					}
				}
			}
			if err := stream.Err(); err != nil {
				var apiErr *openai.Error
				if errors.As(err, &apiErr) {
					err = statusError(name, apiErr.StatusCode, err)
				}
				yield("", err)
			}
		}
	})
}
