package backends

import (
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	cases := map[string]Provider{
		"ollama":   ProviderOllama,
		"OLLAMA":   ProviderOllama,
		"vllm":     ProviderVLLM,
		"nim":      ProviderNIM,
		"llamacpp": ProviderLlamaCpp,
		" LlamaCpp ": ProviderLlamaCpp,
	}
	for input, expected := range cases {
		got, err := ParseProvider(input)
		if err != nil {
			t.Fatalf("ParseProvider(%q): %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseProvider(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestParseProviderUnknown(t *testing.T) {
	if _, err := ParseProvider("openai"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("err = %v, want ErrUnsupportedProvider", err)
	}
	if _, err := ParseProvider(""); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("empty provider: err = %v, want ErrUnsupportedProvider", err)
	}
}
