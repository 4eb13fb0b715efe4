// Package machine is the free Google machine-translation provider. It
// answers whole replies and reports the detected source language.
package machine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"screen-translate/src/translate"
)

const (
	Name            = "google"
	defaultEndpoint = "https://translate.googleapis.com/translate_a/single"
)

type Options struct {
	// Endpoint overrides the public endpoint (tests).
	Endpoint string
	ProxyURL string
	// RequestsPerSecond bounds outgoing calls; 0 means 2/s.
	RequestsPerSecond float64
}

type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

func New(opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second, Transport: transport},
		limiter:  rate.NewLimiter(rate.Limit(rps), 2),
	}, nil
}

// Provider returns the client as a Simple provider.
func (c *Client) Provider() translate.Provider {
	return translate.Simple(Name, c.Translate)
}

// Translate calls the endpoint once. Word mode gets the same plain
// translation; the orchestrator shapes it.
func (c *Client) Translate(ctx context.Context, req translate.Request) (translate.Reply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return translate.Reply{}, err
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", gtxLang(req.Source))
	q.Set("tl", gtxLang(req.Target))
	q.Set("dt", "t")
	q.Set("q", req.Text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return translate.Reply{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return translate.Reply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return translate.Reply{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return translate.Reply{}, translate.NewProviderError(Name, translate.CodeForStatus(resp.StatusCode),
			fmt.Errorf("status %d", resp.StatusCode))
	}
	return parseResponse(body)
}

// parseResponse reads [[["seg","src",...],...],null,"detected",...].
func parseResponse(body []byte) (translate.Reply, error) {
	if !gjson.ValidBytes(body) {
		return translate.Reply{}, translate.NewProviderError(Name, translate.ErrorBadResponse,
			fmt.Errorf("malformed response: %.80q", body))
	}
	doc := gjson.ParseBytes(body)

	var sb strings.Builder
	for _, seg := range doc.Get("0.#.0").Array() {
		sb.WriteString(seg.String())
	}
	if sb.Len() == 0 {
		return translate.Reply{}, translate.NewProviderError(Name, translate.ErrorBadResponse,
			fmt.Errorf("response has no translated segments"))
	}

	return translate.Reply{
		Text:         sb.String(),
		DetectedLang: doc.Get("2").String(),
	}, nil
}

func gtxLang(code string) string {
	if code == "" || code == translate.AutoLang {
		return "auto"
	}
	return code
}
