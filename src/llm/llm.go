package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	ProxyURL  string
}

var (
	config     *Config
	httpClient = &http.Client{Timeout: 45 * time.Second}

	// endpoint is swapped by tests.
	endpoint = "https://openrouter.ai/api/v1/chat/completions"
)

// ErrNoText is returned when the model found nothing to read.
var ErrNoText = errors.New("no text detected in image")

func Init(cfg *Config) {
	config = cfg
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg != nil && cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	httpClient = &http.Client{Timeout: 45 * time.Second, Transport: transport}
}

// Ping checks that the client is configured.
func Ping() error {
	if config == nil {
		return fmt.Errorf("LLM client not initialized")
	}
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // string or number
}

const (
	maxRetries   = 3
	initialDelay = 1 * time.Second
	noTextMarker = "NO_TEXT_FOUND"
)

const textPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
	"- No formatting\n" +
	"- No XML/HTML tags\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"- Preserve line breaks accurately from the visual layout.\n" +
	"If no text found, return '" + noTextMarker + "'"

const regionsPrompt = "Find every line of text in this image. Return ONLY a JSON array, one object per line:\n" +
	`{"text": string, "cx": number, "cy": number, "w": number, "h": number, "angle": number}` + "\n" +
	"cx/cy is the centre of the line's box, w/h its size, all in image pixels; angle is the " +
	"clockwise rotation of the line in degrees (0 for horizontal text).\n" +
	"If no text found, return []"

func getProviderPreferences() *ProviderPreferences {
	if config == nil || len(config.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          config.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// QueryVision sends a PNG to the vision model and returns the plain text.
func QueryVision(ctx context.Context, imageData []byte, langHint string) (string, error) {
	text, err := queryVision(ctx, imageData, withLangHint(textPrompt, langHint))
	if err != nil {
		return "", err
	}
	if text == "" || text == noTextMarker {
		return "", ErrNoText
	}
	return text, nil
}

// QueryVisionRegions asks the vision model for per-line boxes. The reply is
// the model's raw JSON array.
func QueryVisionRegions(ctx context.Context, imageData []byte, langHint string) (string, error) {
	text, err := queryVision(ctx, imageData, withLangHint(regionsPrompt, langHint))
	if err != nil {
		return "", err
	}
	return stripCodeFence(text), nil
}

func withLangHint(prompt, langHint string) string {
	if langHint == "" || langHint == "auto" {
		return prompt
	}
	return prompt + "\nThe text is most likely in language: " + langHint
}

func queryVision(ctx context.Context, imageData []byte, prompt string) (string, error) {
	if err := Ping(); err != nil {
		return "", err
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData)
	request := ChatRequest{
		Model: config.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    getProviderPreferences(),
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := makeAPIRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}
		return cleanExtractedText(response.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func makeAPIRequest(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.APIKey)
	req.Header.Set("X-Title", "Screen Translate")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

func cleanExtractedText(text string) string {
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "</image>"))
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
