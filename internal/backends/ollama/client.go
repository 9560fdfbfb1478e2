// internal/backends/ollama/client.go
// Package ollama implements the bench.Generator adapter for Ollama's
// /api/generate endpoint. Streaming responses arrive as bare NDJSON lines.
package ollama

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
	BaseURL       string
	Model         string
	Params        bench.Parameters
	BackendParams bench.BackendParameters
	HTTPClient    *http.Client
}

// Client is the Ollama adapter.
type Client struct {
	baseURL       string
	model         string
	params        bench.Parameters
	backendParams bench.BackendParameters
	http          *http.Client
	retry         backends.RetryPolicy
}

// New constructs a Client sharing one pooled HTTP client per run.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = backends.NewHTTPClient(cfg.Params.Timeout(), cfg.Params.Concurrency)
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		model:         cfg.Model,
		params:        cfg.Params,
		backendParams: cfg.BackendParams,
		http:          client,
		retry:         backends.DefaultRetryPolicy(),
	}
}

// Warmup issues one unmeasured buffered generation so the server loads the
// model before measurement starts.
func (c *Client) Warmup(ctx context.Context, prompt string) error {
	_, err := backends.PostJSON(ctx, c.http, c.baseURL+"/api/generate", c.payload(prompt, false), "")
	return err
}

// Generate runs one measured generation. A failed streaming attempt falls
// back to a full buffered measurement for this request.
func (c *Client) Generate(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	if c.params.Stream {
		metrics, err := c.generateStream(ctx, prompt)
		if err == nil {
			return metrics, nil
		}
		logging.LogEvent("ollama: streaming attempt failed, measuring buffered instead: %v", err)
	}
	return c.generateBuffered(ctx, prompt)
}

func (c *Client) generateBuffered(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	var metrics bench.RequestMetrics
	err := c.retry.Do(ctx, func() error {
		var err error
		metrics, err = backends.Measure(func() (map[string]any, error) {
			return backends.PostJSON(ctx, c.http, c.baseURL+"/api/generate", c.payload(prompt, false), "")
		})
		return err
	})
	return metrics, err
}

func (c *Client) generateStream(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	return backends.MeasureStream(func() (io.ReadCloser, error) {
		return backends.PostStream(ctx, c.http, c.baseURL+"/api/generate", c.payload(prompt, true), "")
	})
}

func (c *Client) payload(prompt string, stream bool) map[string]any {
	options := map[string]any{
		"temperature": c.params.Temperature,
		"top_p":       c.params.TopP,
		"num_predict": c.params.MaxTokens,
	}
	if c.backendParams.KVCacheTokens > 0 {
		options["num_ctx"] = c.backendParams.KVCacheTokens
	}

	payload := map[string]any{
		"model":   c.model,
		"prompt":  prompt,
		"stream":  stream,
		"options": options,
	}
	if keepAlive := strings.TrimSpace(c.backendParams.OllamaKeepAlive); keepAlive != "" {
		payload["keep_alive"] = keepAlive
	}
	return payload
}
