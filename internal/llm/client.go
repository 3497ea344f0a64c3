// Package llm is a thin client for an Anthropic-style messages endpoint. It
// owns retries, token accounting, and structured-output validation; callers
// own prompts and decide what to do with the text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
	"git.home.luguber.info/inful/talentscout/internal/retry"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultTimeout   = 120 * time.Second

	apiVersion = "2023-06-01"
)

// Config configures the client. Zero values fall back to defaults; the API
// key falls back to ANTHROPIC_API_KEY.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retry       retry.Policy
}

// Client calls the completion endpoint. Safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *slog.Logger
	recorder metrics.Recorder

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests inject a fake
// RoundTripper this way).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a client. Returns a config error when no API key is available.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, errors.ConfigRequired("llm.api_key").
			WithContext("env", "ANTHROPIC_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retry.Initial <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is one completion request.
type Request struct {
	System    string
	User      string
	MaxTokens int // 0 means the configured default
}

// Usage reports token consumption of one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the text result of one completion.
type Response struct {
	Text  string
	Usage Usage
}

// wire types for the messages endpoint

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage Usage `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// TotalUsage returns the cumulative token counts across the client lifetime,
// shown in CLI summaries.
func (c *Client) TotalUsage() Usage {
	return Usage{
		InputTokens:  int(c.inputTokens.Load()),
		OutputTokens: int(c.outputTokens.Load()),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends one completion request, retrying 429 and 5xx per the retry
// policy. Other 4xx fail fast. Honors ctx cancellation between attempts.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	reqID := uuid.New().String()[:8]
	start := time.Now()
	c.logger.Debug("llm.complete.start",
		slog.String("req_id", reqID),
		logfields.Model(c.cfg.Model))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	body := apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []apiMessage{{Role: "user", Content: req.User}},
	}
	if c.cfg.Temperature > 0 {
		t := c.cfg.Temperature
		body.Temperature = &t
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, retryable, err := c.send(ctx, body)
		if err == nil {
			elapsed := time.Since(start)
			c.inputTokens.Add(int64(resp.Usage.InputTokens))
			c.outputTokens.Add(int64(resp.Usage.OutputTokens))
			c.recorder.ObserveLLMRequest("ok", elapsed)
			c.recorder.AddLLMTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)
			c.logger.Info("llm.complete.ok",
				slog.String("req_id", reqID),
				logfields.Model(c.cfg.Model),
				slog.Int("input_tokens", resp.Usage.InputTokens),
				slog.Int("output_tokens", resp.Usage.OutputTokens),
				logfields.DurationMS(float64(elapsed.Milliseconds())))
			return resp, nil
		}
		lastErr = err
		if !retryable || attempt >= c.cfg.Retry.MaxRetries {
			break
		}
		delay := c.cfg.Retry.Delay(attempt + 1)
		c.logger.Warn("llm.complete.retry",
			slog.String("req_id", reqID),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))
		select {
		case <-ctx.Done():
			c.recorder.ObserveLLMRequest("canceled", time.Since(start))
			return Response{}, errors.Wrap(ctx.Err(), errors.CategoryNetwork, errors.SeverityWarning, "llm request canceled")
		case <-time.After(delay):
		}
	}

	c.recorder.ObserveLLMRequest("error", time.Since(start))
	c.logger.Error("llm.complete.fail",
		slog.String("req_id", reqID),
		logfields.Model(c.cfg.Model),
		logfields.Error(lastErr))
	return Response{}, lastErr
}

// send performs one HTTP round trip. retryable reports whether the failure
// is worth another attempt.
func (c *Client) send(ctx context.Context, body apiRequest) (Response, bool, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return Response{}, false, errors.InternalError("encode llm request", err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return Response{}, false, errors.InternalError("build llm request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, true, errors.NetworkError(url, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, true, errors.NetworkError(url, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var decoded apiResponse
		msg := strings.TrimSpace(string(raw))
		if jerr := json.Unmarshal(raw, &decoded); jerr == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		genErr := errors.GenerationFailed("completion", fmt.Errorf("status %d: %s", httpResp.StatusCode, msg)).
			WithContext("status", httpResp.StatusCode)
		return Response{}, retryable, genErr
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, false, errors.GenerationFailed("decode completion", err)
	}
	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, false, errors.GenerationFailed("completion", fmt.Errorf("empty response content"))
	}
	return Response{Text: text.String(), Usage: decoded.Usage}, false, nil
}
