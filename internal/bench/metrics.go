// internal/bench/metrics.go
package bench

import "context"

// RequestMetrics captures the timing and output of one completed generation
// attempt. Values are never mutated after construction.
type RequestMetrics struct {
	// LatencyMS is the wall time of the request in milliseconds.
	LatencyMS float64 `json:"latency_ms"`
	// TTFTMS is the time to the first observable output unit. It equals
	// LatencyMS when no earlier signal was measurable.
	TTFTMS float64 `json:"ttft_ms"`
	// TokensGenerated is a best-effort count from provider-reported
	// counters, falling back to the number of streamed text chunks.
	TokensGenerated int `json:"tokens_generated"`
	// Completion is the extracted output text.
	Completion string `json:"completion"`
	// AvgInterTokenLatencyMS is zero for non-streaming or single-chunk
	// responses.
	AvgInterTokenLatencyMS float64 `json:"avg_inter_token_latency_ms"`
	// RawResponse holds the provider payload for debugging.
	RawResponse map[string]any `json:"-"`
}

// Summary is the aggregate view over all successful requests of a run.
// Every field is zero when no request succeeded.
type Summary struct {
	RequestsTotal   int     `json:"requests_total"`
	LatencyP50MS    float64 `json:"latency_p50_ms"`
	LatencyP95MS    float64 `json:"latency_p95_ms"`
	TTFTAvgMS       float64 `json:"ttft_avg_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
	TokensTotal     int     `json:"tokens_total"`
}

// Result is the outcome of one completed benchmark run. Parameters are a
// frozen snapshot of the values the run used.
type Result struct {
	RunID             string            `json:"run_id"`
	Provider          string            `json:"provider"`
	ModelName         string            `json:"model_name"`
	Prompt            string            `json:"prompt,omitempty"`
	Prompts           []string          `json:"prompts,omitempty"`
	Parameters        Parameters        `json:"parameters"`
	BackendParameters BackendParameters `json:"backend_parameters"`
	Summary           Summary           `json:"summary"`
}

// Generator is the capability an inference backend adapter exposes to the
// engine: one measured generation call and one unmeasured priming call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (RequestMetrics, error)
	Warmup(ctx context.Context, prompt string) error
}
