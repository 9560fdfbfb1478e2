// internal/backends/openaicompat/client.go
// Package openaicompat implements the bench.Generator adapter for servers
// exposing OpenAI-style /v1/completions: vLLM (best_of, beam search) and
// NVIDIA NIM (bearer auth, deployed-model-name override). Streaming bodies
// are SSE "data:" lines terminated by [DONE].
package openaicompat

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
	BaseURL string
	Model   string
	// ModelOverride replaces Model on the wire when set (NIM deployments
	// often register a different identifier than the catalog name).
	ModelOverride string
	APIKey        string
	Params        bench.Parameters
	BackendParams bench.BackendParameters
	HTTPClient    *http.Client
}

// Client is the OpenAI-compatible completions adapter.
type Client struct {
	baseURL       string
	model         string
	apiKey        string
	params        bench.Parameters
	backendParams bench.BackendParameters
	http          *http.Client
	retry         backends.RetryPolicy
}

// New constructs a Client sharing one pooled HTTP client per run.
func New(cfg Config) *Client {
	model := cfg.Model
	if override := strings.TrimSpace(cfg.ModelOverride); override != "" {
		model = override
	}
	client := cfg.HTTPClient
	if client == nil {
		client = backends.NewHTTPClient(cfg.Params.Timeout(), cfg.Params.Concurrency)
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		model:         model,
		apiKey:        cfg.APIKey,
		params:        cfg.Params,
		backendParams: cfg.BackendParams,
		http:          client,
		retry:         backends.DefaultRetryPolicy(),
	}
}

// Warmup issues one unmeasured buffered generation.
func (c *Client) Warmup(ctx context.Context, prompt string) error {
	_, err := backends.PostJSON(ctx, c.http, c.endpoint(), c.payload(prompt, false), c.apiKey)
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
		logging.LogEvent("openaicompat: streaming attempt failed, measuring buffered instead: %v", err)
	}
	return c.generateBuffered(ctx, prompt)
}

func (c *Client) generateBuffered(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	var metrics bench.RequestMetrics
	err := c.retry.Do(ctx, func() error {
		var err error
		metrics, err = backends.Measure(func() (map[string]any, error) {
			return backends.PostJSON(ctx, c.http, c.endpoint(), c.payload(prompt, false), c.apiKey)
		})
		return err
	})
	return metrics, err
}

func (c *Client) generateStream(ctx context.Context, prompt string) (bench.RequestMetrics, error) {
	return backends.MeasureStream(func() (io.ReadCloser, error) {
		return backends.PostStream(ctx, c.http, c.endpoint(), c.payload(prompt, true), c.apiKey)
	})
}

func (c *Client) endpoint() string {
	return c.baseURL + "/v1/completions"
}

func (c *Client) payload(prompt string, stream bool) map[string]any {
	payload := map[string]any{
		"model":              c.model,
		"prompt":             prompt,
		"max_tokens":         c.params.MaxTokens,
		"temperature":        c.params.Temperature,
		"top_p":              c.params.TopP,
		"stream":             stream,
		"repetition_penalty": c.params.RepetitionPenalty,
	}
	if c.backendParams.VLLMBestOf > 1 {
		payload["best_of"] = c.backendParams.VLLMBestOf
	}
	if c.backendParams.VLLMUseBeamSearch {
		payload["use_beam_search"] = true
	}
	return payload
}
