package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig holds configuration for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey            string
	Model             string
	BaseURL           string        // optional, for compatible providers and tests
	Timeout           time.Duration // per-attempt HTTP timeout
	TransportRetries  uint          // attempts for transient transport failures
	TransportDelay    time.Duration // base delay between transport retries
	HTTPClient        *http.Client  // optional (tests)
	DisableJSONSchema bool          // fall back to basic json_object mode
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	cfg    OpenAIConfig
	client openai.Client
	stats  *Stats
}

// NewOpenAIClient creates the client. stats may be nil.
func NewOpenAIClient(cfg OpenAIConfig, stats *Stats) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.TransportRetries == 0 {
		cfg.TransportRetries = 3
	}
	if cfg.TransportDelay == 0 {
		cfg.TransportDelay = 2 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Retries are handled here with retry-go, not by the SDK.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		stats:  stats,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat-completions request, retrying transient
// transport failures with backoff.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if c.cfg.DisableJSONSchema {
		req.ResponseFormat = json.RawMessage(`{"type":"json_object"}`)
	} else {
		req.ResponseFormat = json.RawMessage(EventResponseFormat())
	}

	start := time.Now()
	var out chatResponse
	err := retry.Do(
		func() error {
			out = chatResponse{}
			return c.client.Post(ctx, "/chat/completions", req, &out)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.TransportRetries),
		retry.Delay(c.cfg.TransportDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}

	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds(), out.Usage.PromptTokens, out.Usage.CompletionTokens)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// isTransient reports whether a transport error is worth retrying:
// rate limits, server errors, and network-level failures. Context
// cancellation and client errors are not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Non-API errors are network-level; retry them.
	return true
}
