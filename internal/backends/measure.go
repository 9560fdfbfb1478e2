// internal/backends/measure.go
package backends

import (
	"io"
	"time"

	"github.com/mwiater/metron/internal/bench"
)

// Measure wraps one buffered send with wall-clock timing and the shared
// extraction rules, producing normalized request metrics. The provider's
// own ttft_ms field wins over the latency fallback when reported.
func Measure(send func() (map[string]any, error)) (bench.RequestMetrics, error) {
	start := time.Now()
	body, err := send()
	if err != nil {
		return bench.RequestMetrics{}, err
	}
	latency := float64(time.Since(start)) / float64(time.Millisecond)

	ttft := latency
	if reported, ok := ReportedTTFT(body); ok {
		ttft = reported
	}

	return bench.RequestMetrics{
		LatencyMS:       latency,
		TTFTMS:          ttft,
		TokensGenerated: TokenCount(body),
		Completion:      CompletionText(body),
		RawResponse:     body,
	}, nil
}

// MeasureStream opens one streaming send, consumes it through the stream
// scanner, and normalizes the outcome. Latency spans request start to
// stream completion; TTFT is the arrival of the first text-bearing chunk,
// falling back to the full latency when the stream carried no text.
func MeasureStream(open func() (io.ReadCloser, error)) (bench.RequestMetrics, error) {
	start := time.Now()
	body, err := open()
	if err != nil {
		return bench.RequestMetrics{}, err
	}
	defer body.Close()

	obs := NewStreamObserver(start)
	if err := ScanStream(body, obs, time.Now); err != nil {
		return bench.RequestMetrics{}, err
	}
	result, err := obs.Result()
	if err != nil {
		return bench.RequestMetrics{}, err
	}

	latency := float64(time.Since(start)) / float64(time.Millisecond)
	ttft := result.TTFTMS
	if ttft <= 0 {
		ttft = latency
	}

	raw := map[string]any{
		"streamed": true,
		"chunks":   result.Chunks,
	}
	if len(result.Events) > 0 {
		raw["events"] = result.Events
	}

	return bench.RequestMetrics{
		LatencyMS:              latency,
		TTFTMS:                 ttft,
		TokensGenerated:        result.Tokens,
		Completion:             result.Text,
		AvgInterTokenLatencyMS: result.AvgInterTokenLatencyMS,
		RawResponse:            raw,
	}, nil
}
