package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	skerrors "github.com/fabwinter/Sydneykids/errors"
)

// errorBodyLimit bounds how much of an upstream error payload gets read
// into the error message.
const errorBodyLimit = 2048

// Config holds upstream connection configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Headers    http.Header
	HTTPClient *http.Client
}

// DefaultConfig returns the default upstream configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	}
}

// WithAPIKey sets the bearer token.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithBaseURL sets the upstream base URL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = strings.TrimRight(url, "/")
	return cfg
}

// WithModel sets the default model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// WithHeader adds an extra header to every request, useful for
// OpenRouter-style gateways.
func (cfg *Config) WithHeader(key, value string) *Config {
	if cfg.Headers == nil {
		cfg.Headers = http.Header{}
	}
	cfg.Headers.Set(key, value)
	return cfg
}

// WithHTTPClient replaces the underlying HTTP client, for proxies or
// custom TLS setups.
func (cfg *Config) WithHTTPClient(client *http.Client) *Config {
	cfg.HTTPClient = client
	return cfg
}

// headerTransport injects configured headers into every request.
type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

// HTTPClient implements Client over the chat-completions wire protocol.
type HTTPClient struct {
	config *Config
	client *http.Client
}

// New creates an HTTP transport. The underlying client carries no
// overall timeout by default; the response body streams for as long as
// the reply takes, and stalls are the caller's watchdog to enforce.
func New(config *Config) *HTTPClient {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if len(config.Headers) > 0 {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *client
		wrapped.Transport = headerTransport{rt: base, headers: config.Headers}
		client = &wrapped
	}

	return &HTTPClient{
		config: config,
		client: client,
	}
}

// wireRequest is the chat-completions request body.
type wireRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
	User     string `json:"user,omitempty"`
}

// Open POSTs the completion request and returns the response body as the
// raw record stream. Non-2xx responses map onto the sentinel errors:
// 429 is rate limiting (or exhausted quota when the upstream says so),
// 402 is exhausted quota, anything else is a generic upstream failure.
func (c *HTTPClient) Open(ctx context.Context, req *Request) (io.ReadCloser, error) {
	if req == nil || len(req.Turns) == 0 {
		return nil, fmt.Errorf("request needs at least one turn: %w", skerrors.ErrInvalidInput)
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	body, err := json.Marshal(wireRequest{
		Model:    model,
		Messages: req.Turns,
		Stream:   true,
		User:     req.User,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorBody(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests && strings.Contains(detail, "insufficient_quota"):
			// OpenAI reports exhausted quota as a 429 with this error type.
			return nil, fmt.Errorf("upstream status %d: %s: %w", resp.StatusCode, detail, skerrors.ErrQuotaExhausted)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("upstream status %d: %s: %w", resp.StatusCode, detail, skerrors.ErrRateLimited)
		case resp.StatusCode == http.StatusPaymentRequired:
			return nil, fmt.Errorf("upstream status %d: %s: %w", resp.StatusCode, detail, skerrors.ErrQuotaExhausted)
		default:
			return nil, fmt.Errorf("upstream status %d: %s: %w", resp.StatusCode, detail, skerrors.ErrUpstream)
		}
	}

	if resp.Body == nil {
		return nil, fmt.Errorf("upstream returned no body: %w", skerrors.ErrUpstream)
	}
	return resp.Body, nil
}

func readErrorBody(r io.Reader) string {
	if r == nil {
		return "no detail"
	}
	raw, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return "no detail"
	}
	return string(bytes.TrimSpace(raw))
}
