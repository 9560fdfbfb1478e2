// internal/backends/llamacpp/client.go
// Package llamacpp implements the bench.Generator adapter for llama.cpp
// servers. Modern builds expose an OpenAI-style chat endpoint; older builds
// only serve the legacy /completion API, so each request probes the chat
// endpoint first and falls back once on HTTP 404/405.
package llamacpp

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/mwiater/metron/internal/backends"
	"github.com/mwiater/metron/internal/bench"
	"github.com/mwiater/metron/internal/logging"
)

// Config wires one adapter instance to a server and a frozen parameter set.
type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	Params     bench.Parameters
	HTTPClient *http.Client
}

// Client is the llama.cpp adapter.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	params  bench.Parameters
	http    *http.Client
	retry   backends.RetryPolicy
}

// New constructs a Client. The HTTP client is shared across all in-flight
// requests of the run.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = backends.NewHTTPClient(cfg.Params.Timeout(), cfg.Params.Concurrency)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		params:  cfg.Params,
		http:    client,
		retry:   backends.DefaultRetryPolicy(),
	}
}

// Warmup issues one unmeasured buffered generation to prime server-side
// caches.
func (c *Client) Warmup(ctx context.Context, prompt string) error {
	_, err := c.send(ctx, prompt, false)
	return err
}

// Generate runs one measured generation. A failed streaming attempt is not
// retried; the request falls back to a full buffered measurement instead.
func (c *Client) Generate(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	if c.params.Stream {
		metrics, err := c.generateStream(ctx, prompt)
		if err == nil {
			return metrics, nil
		}
		logging.LogEvent("llamacpp: streaming attempt failed, measuring buffered instead: %v", err)
	}
	return c.generateBuffered(ctx, prompt)
}

func (c *Client) generateBuffered(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	var metrics bench.RequestMetrics
	err := c.retry.Do(ctx, func() error {
		var err error
		metrics, err = backends.Measure(func() (map[string]any, error) {
			return c.send(ctx, prompt, false)
		})
		return err
	})
	return metrics, err
}

func (c *Client) generateStream(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	return backends.MeasureStream(func() (io.ReadCloser, error) {
		body, err := backends.PostStream(ctx, c.http, c.baseURL+"/v1/chat/completions", c.chatPayload(prompt, true), c.apiKey)
		if backends.IsEndpointMissing(err) {
			return backends.PostStream(ctx, c.http, c.baseURL+"/completion", c.legacyPayload(prompt, true), c.apiKey)
		}
		return body, err
	})
}

// send probes the chat endpoint and falls back to the legacy completion
// endpoint at most once per request.
func (c *Client) send(ctx context.Context, prompt string, stream bool) (map[string]any, error) {
	body, err := backends.PostJSON(ctx, c.http, c.baseURL+"/v1/chat/completions", c.chatPayload(prompt, stream), c.apiKey)
	if backends.IsEndpointMissing(err) {
		return backends.PostJSON(ctx, c.http, c.baseURL+"/completion", c.legacyPayload(prompt, stream), c.apiKey)
	}
	return body, err
}

func (c *Client) chatPayload(prompt string, stream bool) map[string]any {
	payload := map[string]any{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens":  c.params.MaxTokens,
		"temperature": c.params.Temperature,
		"top_p":       c.params.TopP,
		"stream":      stream,
	}
	if c.params.RepetitionPenalty > 0 {
		payload["options"] = map[string]any{"repeat_penalty": c.params.RepetitionPenalty}
	}
	return payload
}

func (c *Client) legacyPayload(prompt string, stream bool) map[string]any {
	return map[string]any{
		"prompt":         prompt,
		"n_predict":      c.params.MaxTokens,
		"temperature":    c.params.Temperature,
		"top_p":          c.params.TopP,
		"repeat_penalty": c.params.RepetitionPenalty,
		"stream":         stream,
	}
}
