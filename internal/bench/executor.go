// internal/bench/executor.go
package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mwiater/metron/internal/logging"
)

// RunConfig describes one benchmark run: the target, the prompt source, and
// the frozen parameter set the executor will apply.
type RunConfig struct {
	Provider          string
	ModelName         string
	Prompt            string
	UseRandomPrompts  bool
	RandomPromptCount int
	Parameters        Parameters
	BackendParameters BackendParameters

	// PromptSource materializes the prompt list when UseRandomPrompts is
	// set. It is invoked exactly once per run.
	PromptSource func(ctx context.Context, count int) ([]string, error)

	// OnMetrics, when set, receives each result in completion order from
	// the coordinating goroutine. Arrival order is not submission order.
	OnMetrics func(RequestMetrics)
}

// Executor drives one benchmark run: sequential warmups, then exactly
// RequestCount requests through a fixed-size worker pool, collecting results
// in completion order.
type Executor struct {
	gen Generator
	cfg RunConfig
	acc StatsAccumulator
}

// NewExecutor returns an Executor for one run of cfg against gen.
func NewExecutor(gen Generator, cfg RunConfig) *Executor {
	return &Executor{gen: gen, cfg: cfg}
}

// Partial returns a summary of the metrics collected so far. It is the view
// a caller gets after cancelling a run; it must only be read once Run has
// returned.
func (e *Executor) Partial() Summary {
	return e.acc.Summarize()
}

type outcome struct {
	metrics RequestMetrics
	err     error
}

// Run executes the benchmark. The first request that fails (after the
// adapter's own retries) aborts the run: no further results are consumed and
// the error is returned. In-flight requests are left to finish on their own;
// workers drain into a fully buffered channel so none of them block.
func (e *Executor) Run(ctx context.Context) (Result, error) {
	params := e.cfg.Parameters
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	prompts, err := e.resolvePrompts(ctx)
	if err != nil {
		return Result{}, err
	}

	for i := 0; i < params.WarmupRequests; i++ {
		if err := e.gen.Warmup(ctx, prompts[i%len(prompts)]); err != nil {
			return Result{}, fmt.Errorf("warmup request %d of %d: %w", i+1, params.WarmupRequests, err)
		}
	}

	total := params.RequestCount
	tasks := make(chan int, total)
	for i := 0; i < total; i++ {
		tasks <- i
	}
	close(tasks)

	completed := make(chan outcome, total)
	stop := make(chan struct{})
	defer close(stop)

	for w := 0; w < params.Concurrency; w++ {
		go func() {
			for idx := range tasks {
				select {
				case <-stop:
					return
				default:
				}
				if err := ctx.Err(); err != nil {
					completed <- outcome{err: err}
					continue
				}
				m, err := e.gen.Generate(ctx, prompts[idx%len(prompts)])
				completed <- outcome{metrics: m, err: err}
			}
		}()
	}

	for i := 0; i < total; i++ {
		out := <-completed
		if out.err != nil {
			return Result{}, fmt.Errorf("benchmark request failed: %w", out.err)
		}
		e.acc.Add(out.metrics)
		if e.cfg.OnMetrics != nil {
			e.cfg.OnMetrics(out.metrics)
		}
	}

	result := Result{
		RunID:             uuid.NewString(),
		Provider:          e.cfg.Provider,
		ModelName:         e.cfg.ModelName,
		Prompt:            e.cfg.Prompt,
		Parameters:        params,
		BackendParameters: e.cfg.BackendParameters,
		Summary:           e.acc.Summarize(),
	}
	if e.cfg.UseRandomPrompts {
		// Record the generated set so the run can be reproduced.
		result.Prompts = prompts
	}
	return result, nil
}

// resolvePrompts returns the fixed prompt list for the run. Work item i uses
// prompts[i % len(prompts)].
func (e *Executor) resolvePrompts(ctx context.Context) ([]string, error) {
	if !e.cfg.UseRandomPrompts {
		return []string{e.cfg.Prompt}, nil
	}
	if e.cfg.PromptSource == nil {
		return nil, errors.New("random prompts requested but no prompt source configured")
	}
	count := e.cfg.RandomPromptCount
	if count < 1 {
		count = 1
	}
	prompts, err := e.cfg.PromptSource(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("generate random prompts: %w", err)
	}
	if len(prompts) == 0 {
		return nil, errors.New("prompt source returned an empty list")
	}
	logging.LogEvent("Benchmarking with %d generated prompts", len(prompts))
	return prompts, nil
}
