package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPingNotInitialized(t *testing.T) {
	config = nil
	if err := Ping(); err == nil {
		t.Error("Expected error when not initialized")
	}
}

func TestQueryVisionValidation(t *testing.T) {
	config = nil
	if _, err := QueryVision(context.Background(), []byte{0xFF}, ""); err == nil {
		t.Error("Expected error when not initialized")
	}

	Init(&Config{Model: "test_model"})
	if _, err := QueryVision(context.Background(), []byte{0xFF}, ""); err == nil {
		t.Error("Expected error with missing API key")
	}

	Init(&Config{APIKey: "test_api_key"})
	if _, err := QueryVision(context.Background(), []byte{0xFF}, ""); err == nil {
		t.Error("Expected error with missing model")
	}
}

func serve(t *testing.T, content string) func() {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req ChatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("unexpected messages: %+v", req.Messages)
		} else if !strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("image not inlined")
		}
		_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []Choice{{Message: ResponseMessage{Content: content}}}})
	}))
	prev := endpoint
	endpoint = srv.URL
	Init(&Config{APIKey: "k", Model: "m"})
	return func() {
		endpoint = prev
		srv.Close()
	}
}

func TestQueryVisionReturnsText(t *testing.T) {
	defer serve(t, "Hello\nWorld</image>")()
	got, err := QueryVision(context.Background(), []byte{1, 2, 3}, "en")
	if err != nil {
		t.Fatalf("QueryVision: %v", err)
	}
	if got != "Hello\nWorld" {
		t.Fatalf("text = %q", got)
	}
}

func TestQueryVisionNoText(t *testing.T) {
	defer serve(t, "NO_TEXT_FOUND")()
	if _, err := QueryVision(context.Background(), []byte{1}, ""); !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestQueryVisionRegionsStripsFence(t *testing.T) {
	defer serve(t, "```json\n[{\"text\":\"Hi\",\"cx\":5,\"cy\":5,\"w\":10,\"h\":4,\"angle\":0}]\n```")()
	got, err := QueryVisionRegions(context.Background(), []byte{1}, "")
	if err != nil {
		t.Fatalf("QueryVisionRegions: %v", err)
	}
	if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "]") {
		t.Fatalf("raw = %q", got)
	}
}

func TestQueryVisionHonoursCancel(t *testing.T) {
	defer serve(t, "x")()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := QueryVision(ctx, []byte{1}, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
