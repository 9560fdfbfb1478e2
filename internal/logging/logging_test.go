package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "metron.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	LogEvent("benchmark %s started", "run-1")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "benchmark run-1 started") {
		t.Fatalf("log contents = %q", string(data))
	}
}

func TestLogRequestFormatsDirectionAndPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metron.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	LogRequest("metron->llm", "http://localhost:11434/api/generate", "llama3", map[string]any{"stream": true})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[METRON->LLM]") {
		t.Fatalf("direction tag missing: %q", line)
	}
	if !strings.Contains(line, "target=http://localhost:11434/api/generate") {
		t.Fatalf("target missing: %q", line)
	}
	if !strings.Contains(line, "model=llama3") {
		t.Fatalf("model missing: %q", line)
	}
	if !strings.Contains(line, `payload={"stream":true}`) {
		t.Fatalf("payload missing: %q", line)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
