package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwiater/metron/internal/bench"
)

func testParams(stream bool) bench.Parameters {
	params := bench.DefaultParameters()
	params.Stream = stream
	params.TimeoutSeconds = 5
	return params
}

func TestGenerateBufferedPayloadAndMetrics(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"response":"four legs good","eval_count":5}`)
	}))
	defer server.Close()

	backendParams := bench.DefaultBackendParameters()
	backendParams.KVCacheTokens = 4096
	client := New(Config{
		BaseURL:       server.URL,
		Model:         "llama3",
		Params:        testParams(false),
		BackendParams: backendParams,
	})

	metrics, err := client.Generate(context.Background(), "say something")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if metrics.Completion != "four legs good" {
		t.Fatalf("completion = %q", metrics.Completion)
	}
	if metrics.TokensGenerated != 5 {
		t.Fatalf("tokens = %d, want 5", metrics.TokensGenerated)
	}
	if metrics.LatencyMS <= 0 || metrics.TTFTMS <= 0 {
		t.Fatalf("timing not measured: %+v", metrics)
	}

	if captured["model"] != "llama3" || captured["prompt"] != "say something" {
		t.Fatalf("request identity = %v / %v", captured["model"], captured["prompt"])
	}
	if captured["stream"] != false {
		t.Fatalf("buffered request sent stream=%v", captured["stream"])
	}
	if captured["keep_alive"] != "5m" {
		t.Fatalf("keep_alive = %v, want 5m", captured["keep_alive"])
	}
	options, ok := captured["options"].(map[string]any)
	if !ok {
		t.Fatalf("options missing: %v", captured)
	}
	if options["num_predict"] != float64(bench.DefaultMaxTokens) {
		t.Fatalf("num_predict = %v", options["num_predict"])
	}
	if options["num_ctx"] != float64(4096) {
		t.Fatalf("num_ctx = %v, want 4096", options["num_ctx"])
	}
}

func TestGenerateStreamNDJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != true {
			t.Errorf("streaming request sent stream=%v", req["stream"])
		}
		fmt.Fprintln(w, `{"response":"Hel"}`)
		fmt.Fprintln(w, `{"response":"lo"}`)
		fmt.Fprintln(w, `{"response":"","done":true,"eval_count":7}`)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:       server.URL,
		Model:         "llama3",
		Params:        testParams(true),
		BackendParams: bench.DefaultBackendParameters(),
	})

	metrics, err := client.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if metrics.Completion != "Hello" {
		t.Fatalf("completion = %q, want Hello", metrics.Completion)
	}
	if metrics.TokensGenerated != 7 {
		t.Fatalf("tokens = %d, want eval_count 7", metrics.TokensGenerated)
	}
}

func TestGenerateFallsBackToBufferedOnStreamFailure(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] == true {
			// Streaming request gets a body with no usable chunks.
			return
		}
		fmt.Fprint(w, `{"response":"buffered answer","eval_count":3}`)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:       server.URL,
		Model:         "llama3",
		Params:        testParams(true),
		BackendParams: bench.DefaultBackendParameters(),
	})

	metrics, err := client.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if metrics.Completion != "buffered answer" {
		t.Fatalf("completion = %q; buffered fallback did not run", metrics.Completion)
	}
	if requests < 2 {
		t.Fatalf("requests = %d, want stream attempt plus buffered", requests)
	}
}

func TestWarmupDoesNotStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != false {
			t.Errorf("warmup sent stream=%v", req["stream"])
		}
		fmt.Fprint(w, `{"response":"warm"}`)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:       server.URL,
		Model:         "llama3",
		Params:        testParams(true),
		BackendParams: bench.DefaultBackendParameters(),
	})
	if err := client.Warmup(context.Background(), "prime"); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
}
