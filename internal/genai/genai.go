// Package genai wraps the upstream language-model provider.
//
// It exposes two call shapes: Generate, a buffered completion used by the
// non-streaming chat path, and OpenStream, a raw event-stream call whose
// lines the relay forwards to the browser as they arrive. Provider failures
// are classified into the models.ErrUpstream* taxonomy so callers can map
// them to distinct outward signals.
package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Controlfox/InnoviaHub/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default provider configuration.
const (
	// DefaultBaseURL is the OpenAI API base used when no override is set.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the model used for receptionist answers.
	DefaultModel = "gpt-4.1"
)

// maxErrorBodyBytes bounds how much of an upstream error body is kept.
const maxErrorBodyBytes = 4096

// Opts holds configuration applied by Option functions.
type Opts struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Option configures the client during construction.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the provider base URL. Used by tests and for
// OpenAI-compatible gateways.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = strings.TrimRight(url, "/") }
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithHTTPClient sets the client used for the streaming call.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = hc }
}

// Client is an explicitly constructed provider client; configuration is
// passed at construction, never read from process globals.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	oai     openai.Client
}

// NewClient creates a provider client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		// No Timeout here: the streaming response body stays open for the
		// lifetime of the answer. Cancellation comes from the request context.
		cfg.HTTPClient = &http.Client{}
	}
	// The SDK resolves endpoint paths against the base URL, which requires a
	// trailing slash to keep any path prefix (such as /v1).
	sdkBase := cfg.BaseURL
	if !strings.HasSuffix(sdkBase, "/") {
		sdkBase += "/"
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		http:    cfg.HTTPClient,
		// A failed provider call is surfaced, never retried.
		oai: openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithBaseURL(sdkBase), option.WithMaxRetries(0)),
	}, nil
}

// Generate performs a buffered (non-streaming) completion and returns the
// answer text once the provider has finished.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.StatusCode, apiErr.Error())
		}
		return "", fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", models.ErrUpstreamUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyStatus maps a provider HTTP status to the upstream error taxonomy.
func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d: %s", models.ErrUpstreamAuth, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", models.ErrUpstreamRateLimited, status, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", models.ErrUpstreamUnavailable, status, detail)
	}
}

// readErrorBody drains at most maxErrorBodyBytes of an error response.
func readErrorBody(body io.Reader) string {
	buf, _ := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	return strings.TrimSpace(string(buf))
}
