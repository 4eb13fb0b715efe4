// Package aiprovider adapts chat-model SDKs to streaming translation
// providers. All of them share the prompts from the translate package.
package aiprovider

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"screen-translate/src/translate"
)

const (
	OpenAI     = "openai"
	OpenRouter = "openrouter"
	Anthropic  = "anthropic"
	Gemini     = "gemini"

	openRouterBaseURL = "https://openrouter.ai/api/v1/"
)

var defaultModels = map[string]string{
	OpenAI:     "gpt-4o-mini",
	OpenRouter: "openai/gpt-4o-mini",
	Anthropic:  "claude-3-5-haiku-latest",
	Gemini:     "gemini-1.5-flash",
}

type Config struct {
	// Name is one of OpenAI, OpenRouter, Anthropic or Gemini.
	Name     string
	APIKey   string
	Model    string
	BaseURL  string
	ProxyURL string
}

// New builds the streaming provider named in cfg.
func New(cfg Config) (translate.Provider, error) {
	if cfg.APIKey == "" {
		return translate.Provider{}, fmt.Errorf("%s: API key is required", cfg.Name)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Name]
	}
	hc, err := httpClient(cfg.ProxyURL)
	if err != nil {
		return translate.Provider{}, err
	}

	switch cfg.Name {
	case OpenAI:
		return newOpenAI(cfg, hc), nil
	case OpenRouter:
		if cfg.BaseURL == "" {
			cfg.BaseURL = openRouterBaseURL
		}
		return newOpenAI(cfg, hc), nil
	case Anthropic:
		return newAnthropic(cfg, hc), nil
	case Gemini:
		// The Gemini client builds its own transport; the proxy is not applied.
		return newGemini(cfg), nil
	default:
		return translate.Provider{}, fmt.Errorf("unknown AI provider %q", cfg.Name)
	}
}

func httpClient(proxyURL string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}, nil
}

// statusError maps an SDK error carrying an HTTP status to a ProviderError.
func statusError(provider string, status int, err error) error {
	if status == 0 {
		return err
	}
	return translate.NewProviderError(provider, translate.CodeForStatus(status), err)
}
