// internal/commands/benchmark.go
package metron

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/metron/internal/backendfactory"
	"github.com/mwiater/metron/internal/backends"
	"github.com/mwiater/metron/internal/bench"
	"github.com/mwiater/metron/internal/logging"
	"github.com/mwiater/metron/internal/prompts"
	"github.com/mwiater/metron/internal/util"
)

// defaultPrompt is the prompt used when neither --prompt nor --random-prompts
// is given.
const defaultPrompt = "Summarize the importance of TensorRT-LLM when deploying large language models in production environments."

var (
	headerLine = color.New(color.FgCyan, color.Bold).SprintFunc()
	metricName = color.New(color.FgYellow).SprintFunc()
	okLine     = color.New(color.FgGreen).SprintFunc()
)

// benchmarkCmd runs a single benchmark against one provider endpoint.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run a single benchmark against one inference backend",
	Long: `Run a single benchmark against one inference backend.

Sends warmup requests first, then the measured request set through a
fixed-size worker pool, and writes the aggregated results as JSON under
metronData/benchmarks/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName, _ := cmd.Flags().GetString("provider")
		provider, err := backends.ParseProvider(providerName)
		if err != nil {
			return err
		}
		modelName, _ := cmd.Flags().GetString("model")

		runCfg, opts, err := buildRunConfig(cmd, string(provider), modelName)
		if err != nil {
			return err
		}

		gen, err := backendfactory.New(provider, opts)
		if err != nil {
			return err
		}
		if runCfg.UseRandomPrompts {
			runCfg.PromptSource = func(ctx context.Context, count int) ([]string, error) {
				guidance, _ := cmd.Flags().GetString("prompt-guidance")
				return prompts.Generate(ctx, gen, count, guidance)
			}
		}

		completedSoFar := 0
		runCfg.OnMetrics = func(m bench.RequestMetrics) {
			completedSoFar++
			logging.LogEvent("Request %d/%d: latency=%.1fms ttft=%.1fms tokens=%d %q",
				completedSoFar, runCfg.Parameters.RequestCount,
				m.LatencyMS, m.TTFTMS, m.TokensGenerated,
				util.TruncateRunes(util.FirstLine(m.Completion), 60))
		}

		result, err := bench.NewExecutor(gen, runCfg).Run(cmd.Context())
		if err != nil {
			return err
		}

		printSummary(cmd, result)
		if GetConfig() != nil && GetConfig().Debug {
			pp.Println(result)
		}

		path, err := bench.WriteResult(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okLine(fmt.Sprintf("Results written to %s", path)))
		return nil
	},
}

// buildRunConfig merges config-file defaults with flag overrides into the
// frozen run configuration plus the factory options for the adapter.
func buildRunConfig(cmd *cobra.Command, provider, modelName string) (bench.RunConfig, backendfactory.Options, error) {
	cfg := GetConfig()
	if cfg == nil {
		return bench.RunConfig{}, backendfactory.Options{}, fmt.Errorf("configuration was not loaded")
	}

	params := bench.DefaultParameters()
	if cfg.Defaults.RequestCount > 0 {
		params.RequestCount = cfg.Defaults.RequestCount
	}
	if cfg.Defaults.Concurrency > 0 {
		params.Concurrency = cfg.Defaults.Concurrency
	}
	if cfg.Defaults.WarmupRequests > 0 {
		params.WarmupRequests = cfg.Defaults.WarmupRequests
	}
	if cfg.TimeoutSeconds > 0 {
		params.TimeoutSeconds = float64(cfg.TimeoutSeconds)
	}

	flags := cmd.Flags()
	if flags.Changed("request-count") {
		params.RequestCount, _ = flags.GetInt("request-count")
	}
	if flags.Changed("concurrency") {
		params.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("warmup-requests") {
		params.WarmupRequests, _ = flags.GetInt("warmup-requests")
	}
	if flags.Changed("max-tokens") {
		params.MaxTokens, _ = flags.GetInt("max-tokens")
	}
	if flags.Changed("temperature") {
		params.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("top-p") {
		params.TopP, _ = flags.GetFloat64("top-p")
	}
	if flags.Changed("repetition-penalty") {
		params.RepetitionPenalty, _ = flags.GetFloat64("repetition-penalty")
	}
	if flags.Changed("stream") {
		params.Stream, _ = flags.GetBool("stream")
	}
	if flags.Changed("request-timeout") {
		params.TimeoutSeconds, _ = flags.GetFloat64("request-timeout")
	}
	if err := params.Validate(); err != nil {
		return bench.RunConfig{}, backendfactory.Options{}, err
	}

	backendParams := bench.DefaultBackendParameters()
	if flags.Changed("nim-model-name") {
		backendParams.NIMModelName, _ = flags.GetString("nim-model-name")
	}
	if flags.Changed("keep-alive") {
		backendParams.OllamaKeepAlive, _ = flags.GetString("keep-alive")
	}
	if flags.Changed("kv-cache-tokens") {
		backendParams.KVCacheTokens, _ = flags.GetInt("kv-cache-tokens")
	}
	if flags.Changed("best-of") {
		backendParams.VLLMBestOf, _ = flags.GetInt("best-of")
	}
	if flags.Changed("use-beam-search") {
		backendParams.VLLMUseBeamSearch, _ = flags.GetBool("use-beam-search")
	}

	prompt, _ := flags.GetString("prompt")
	randomCount, _ := flags.GetInt("random-prompts")
	baseURL, _ := flags.GetString("base-url")

	runCfg := bench.RunConfig{
		Provider:          provider,
		ModelName:         modelName,
		Prompt:            prompt,
		UseRandomPrompts:  randomCount > 0,
		RandomPromptCount: randomCount,
		Parameters:        params,
		BackendParameters: backendParams,
	}
	opts := backendfactory.Options{
		Config:        cfg,
		BaseURL:       baseURL,
		Model:         modelName,
		Params:        params,
		BackendParams: backendParams,
	}
	return runCfg, opts, nil
}

// printSummary renders the aggregate metrics of one run.
func printSummary(cmd *cobra.Command, result bench.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerLine(fmt.Sprintf("Benchmark complete: %s / %s (run %s)", result.Provider, result.ModelName, result.RunID)))
	s := result.Summary
	fmt.Fprintf(out, "  %s %d\n", metricName("requests:"), s.RequestsTotal)
	fmt.Fprintf(out, "  %s %.1f ms\n", metricName("latency p50:"), s.LatencyP50MS)
	fmt.Fprintf(out, "  %s %.1f ms\n", metricName("latency p95:"), s.LatencyP95MS)
	fmt.Fprintf(out, "  %s %.1f ms\n", metricName("ttft avg:"), s.TTFTAvgMS)
	fmt.Fprintf(out, "  %s %.1f\n", metricName("tokens/sec:"), s.TokensPerSecond)
	fmt.Fprintf(out, "  %s %d\n", metricName("tokens total:"), s.TokensTotal)
}

// addBenchmarkFlags registers the flags shared by benchmark and sweep.
func addBenchmarkFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "inference backend: ollama, vllm, nim, or llamacpp")
	cmd.Flags().StringP("model", "m", "", "model name to benchmark")
	cmd.Flags().String("base-url", "", "override the configured endpoint URL")
	cmd.Flags().String("prompt", defaultPrompt, "prompt sent with every request")
	cmd.Flags().Int("request-count", bench.DefaultRequestCount, "number of measured requests")
	cmd.Flags().Int("concurrency", bench.DefaultConcurrency, "maximum requests in flight")
	cmd.Flags().Int("warmup-requests", bench.DefaultWarmupRequests, "unmeasured priming requests")
	cmd.Flags().Int("max-tokens", bench.DefaultMaxTokens, "maximum tokens per completion")
	cmd.Flags().Float64("temperature", bench.DefaultTemperature, "sampling temperature")
	cmd.Flags().Float64("top-p", bench.DefaultTopP, "nucleus sampling probability mass")
	cmd.Flags().Float64("repetition-penalty", 1.0, "repetition penalty (1.0 = off)")
	cmd.Flags().Bool("stream", true, "stream completions and measure time to first token")
	cmd.Flags().Float64("request-timeout", bench.DefaultTimeoutSeconds, "per-request timeout in seconds")
	cmd.Flags().Int("random-prompts", 0, "generate this many prompts with the model instead of --prompt")
	cmd.Flags().String("prompt-guidance", "", "extra guidance for random prompt generation")
	cmd.Flags().String("nim-model-name", "", "override the deployed NIM model identifier")
	cmd.Flags().String("keep-alive", "", "Ollama keep_alive duration (e.g., 5m)")
	cmd.Flags().Int("kv-cache-tokens", 0, "Ollama context window hint (num_ctx)")
	cmd.Flags().Int("best-of", 0, "vLLM best_of sampling width")
	cmd.Flags().Bool("use-beam-search", false, "enable beam search on vLLM")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("model")
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	addBenchmarkFlags(benchmarkCmd)
}
