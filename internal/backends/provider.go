// internal/backends/provider.go
package backends

import (
	"fmt"
	"strings"
)

// Provider identifies an inference backend flavor.
type Provider string

const (
	ProviderOllama   Provider = "ollama"
	ProviderNIM      Provider = "nim"
	ProviderVLLM     Provider = "vllm"
	ProviderLlamaCpp Provider = "llamacpp"
)

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderOllama, ProviderNIM, ProviderVLLM, ProviderLlamaCpp}
}

// ParseProvider resolves a user-supplied provider name, case-insensitively.
func ParseProvider(name string) (Provider, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Providers() {
		if string(p) == trimmed {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
}
