// internal/bench/params.go
// Package bench implements the benchmark execution engine: parameter
// handling, bounded-concurrency dispatch, statistics aggregation, and
// parameter-grid sweeps against pluggable inference backends.
package bench

import (
	"fmt"
	"time"
)

// Default values applied when a run does not override a parameter.
const (
	DefaultRequestCount   = 20
	DefaultConcurrency    = 4
	DefaultWarmupRequests = 2
	DefaultMaxTokens      = 512
	DefaultTemperature    = 0.2
	DefaultTopP           = 0.9
	DefaultTimeoutSeconds = 120.0

	// MaxConcurrency bounds how many requests may be in flight at once.
	MaxConcurrency = 256
	// MaxWarmupRequests bounds the number of unmeasured priming calls.
	MaxWarmupRequests = 100
)

// Parameters controls a single benchmark run. A Parameters value is treated
// as immutable once handed to an Executor; sweeps operate on independent
// copies produced by WithSweepPoint.
type Parameters struct {
	RequestCount      int     `json:"request_count"`
	Concurrency       int     `json:"concurrency"`
	WarmupRequests    int     `json:"warmup_requests"`
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	Stream            bool    `json:"stream"`
	TimeoutSeconds    float64 `json:"timeout"`
}

// DefaultParameters returns the baseline parameter set for a run.
func DefaultParameters() Parameters {
	return Parameters{
		RequestCount:      DefaultRequestCount,
		Concurrency:       DefaultConcurrency,
		WarmupRequests:    DefaultWarmupRequests,
		MaxTokens:         DefaultMaxTokens,
		Temperature:       DefaultTemperature,
		TopP:              DefaultTopP,
		RepetitionPenalty: 1.0,
		Stream:            true,
		TimeoutSeconds:    DefaultTimeoutSeconds,
	}
}

// Validate reports the first constraint violated by the parameter set.
func (p Parameters) Validate() error {
	if p.RequestCount < 1 {
		return fmt.Errorf("request_count must be at least 1, got %d", p.RequestCount)
	}
	if p.Concurrency < 1 || p.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, p.Concurrency)
	}
	if p.WarmupRequests < 0 || p.WarmupRequests > MaxWarmupRequests {
		return fmt.Errorf("warmup_requests must be between 0 and %d, got %d", MaxWarmupRequests, p.WarmupRequests)
	}
	if p.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be at least 1, got %d", p.MaxTokens)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", p.Temperature)
	}
	if p.TopP < 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1, got %g", p.TopP)
	}
	if p.RepetitionPenalty < 0 {
		return fmt.Errorf("repetition_penalty must not be negative, got %g", p.RepetitionPenalty)
	}
	if p.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %g", p.TimeoutSeconds)
	}
	return nil
}

// Timeout returns the per-request timeout as a duration.
func (p Parameters) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds * float64(time.Second))
}

// WithSweepPoint returns an independent copy of p with the three sweep axes
// substituted and every other field unchanged.
func (p Parameters) WithSweepPoint(concurrency, maxTokens int, temperature float64) Parameters {
	point := p
	point.Concurrency = concurrency
	point.MaxTokens = maxTokens
	point.Temperature = temperature
	return point
}

// BackendParameters carries per-provider overrides. The executor treats the
// value as opaque; only the matching adapter interprets its fields.
type BackendParameters struct {
	// NIMModelName overrides the deployed NIM model identifier.
	NIMModelName string `json:"nim_model_name,omitempty"`
	// OllamaKeepAlive is forwarded as the keep_alive duration string.
	OllamaKeepAlive string `json:"ollama_keep_alive,omitempty"`
	// KVCacheTokens hints the context window (num_ctx) for Ollama servers.
	KVCacheTokens int `json:"kv_cache_tokens,omitempty"`
	// VLLMBestOf sets the best_of sampling width for vLLM servers.
	VLLMBestOf int `json:"vllm_best_of,omitempty"`
	// VLLMUseBeamSearch toggles beam search for vLLM servers.
	VLLMUseBeamSearch bool `json:"vllm_use_beam_search,omitempty"`
}

// DefaultBackendParameters returns the per-provider override defaults.
func DefaultBackendParameters() BackendParameters {
	return BackendParameters{
		OllamaKeepAlive: "5m",
		VLLMBestOf:      1,
	}
}
