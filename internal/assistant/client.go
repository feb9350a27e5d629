// Package assistant talks to an OpenAI-compatible chat completions API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/types"
)

var (
	ErrNotConfigured = errors.New("assistant api key not configured")
	ErrCircuitOpen   = errors.New("assistant circuit open")
)

// StatusError is a non-200 reply from the completion API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client sends conversations to the completion API with retries and a
// circuit breaker.
type Client struct {
	cfg     func() config.AssistantConfig
	http    *http.Client
	breaker *Breaker
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(cfg func() config.AssistantConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cb := cfg().CircuitBreaker
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: NewBreaker(cb.FailureThreshold, cb.RecoveryProbeInterval),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Breaker exposes the circuit breaker state for health reporting.
func (c *Client) Breaker() *Breaker { return c.breaker }

// Complete sends the system prompt followed by history and returns the first
// choice. Failed attempts are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, history []types.Message) (*types.Completion, error) {
	cfg := c.cfg()
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	messages := make([]types.Message, 0, len(history)+1)
	if cfg.SystemPrompt != "" {
		messages = append(messages, types.Message{Role: types.RoleSystem, Content: cfg.SystemPrompt})
	}
	messages = append(messages, history...)

	body, err := json.Marshal(completionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; ; attempt++ {
		completion, err := c.send(ctx, cfg, body)
		if err == nil {
			c.breaker.RecordSuccess()
			return completion, nil
		}

		var se *StatusError
		retryable := !errors.As(err, &se) || se.retryable()
		slog.Warn("completion attempt failed", "attempt", attempt+1, "retryable", retryable, "error", err)

		if !retryable || attempt+1 >= attempts || ctx.Err() != nil {
			c.breaker.RecordFailure()
			return nil, err
		}
		if err := c.sleep(ctx, cfg.RetryBase<<attempt); err != nil {
			c.breaker.RecordFailure()
			return nil, err
		}
	}
}

func (c *Client) send(ctx context.Context, cfg config.AssistantConfig, body []byte) (*types.Completion, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out completionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	return &types.Completion{
		Model:        out.Model,
		Content:      out.Choices[0].Message.Content,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}

type completionRequest struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      types.Message `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage types.Usage `json:"usage"`
}
