// internal/bench/stats.go
package bench

import (
	"math"
	"sort"
)

// StatsAccumulator is an append-only reducer over the metrics of a run. The
// executor appends from its coordinating goroutine only, so the accumulator
// carries no locking. Arrival order does not affect the summary.
type StatsAccumulator struct {
	latencies []float64
	ttfts     []float64
	tokens    []int
}

// Add records the metrics of one successful request.
func (a *StatsAccumulator) Add(m RequestMetrics) {
	a.latencies = append(a.latencies, m.LatencyMS)
	a.ttfts = append(a.ttfts, m.TTFTMS)
	a.tokens = append(a.tokens, m.TokensGenerated)
}

// Count returns the number of requests recorded so far.
func (a *StatsAccumulator) Count() int {
	return len(a.latencies)
}

// Summarize reduces the recorded metrics into a Summary. With no recorded
// requests every field is zero.
//
// TokensPerSecond divides by the sum of per-request latencies rather than
// the run's wall-clock duration, which overstates throughput under
// concurrency. The formula is kept for compatibility with existing result
// consumers.
func (a *StatsAccumulator) Summarize() Summary {
	if len(a.latencies) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(a.latencies))
	copy(sorted, a.latencies)
	sort.Float64s(sorted)

	tokensTotal := 0
	for _, n := range a.tokens {
		tokensTotal += n
	}

	latencySum := 0.0
	for _, l := range a.latencies {
		latencySum += l
	}
	tps := 0.0
	if totalSeconds := latencySum / 1000.0; totalSeconds > 0 {
		tps = float64(tokensTotal) / totalSeconds
	}

	ttftSum := 0.0
	for _, t := range a.ttfts {
		ttftSum += t
	}

	return Summary{
		RequestsTotal:   len(a.latencies),
		LatencyP50MS:    Percentile(sorted, 50),
		LatencyP95MS:    Percentile(sorted, 95),
		TTFTAvgMS:       ttftSum / float64(len(a.ttfts)),
		TokensPerSecond: tps,
		TokensTotal:     tokensTotal,
	}
}

// Percentile computes percentile p (0-100) over an ascending-sorted slice
// using linear interpolation between the surrounding order statistics. An
// empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	k := float64(len(sorted)-1) * (p / 100)
	floor := math.Floor(k)
	ceil := math.Ceil(k)
	if floor == ceil {
		return sorted[int(k)]
	}
	lower := sorted[int(floor)] * (ceil - k)
	upper := sorted[int(ceil)] * (k - floor)
	return lower + upper
}
