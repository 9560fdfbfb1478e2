// internal/backendfactory/factory.go
// Package backendfactory selects and configures the adapter for a provider.
package backendfactory

import (
	"fmt"
	"strings"

	"github.com/mwiater/metron/internal/appconfig"
	"github.com/mwiater/metron/internal/backends"
	"github.com/mwiater/metron/internal/backends/llamacpp"
	"github.com/mwiater/metron/internal/backends/ollama"
	"github.com/mwiater/metron/internal/backends/openaicompat"
	"github.com/mwiater/metron/internal/bench"
)

// Options carries everything an adapter needs for one run.
type Options struct {
	Config *appconfig.Config
	// BaseURL overrides the configured endpoint URL when set.
	BaseURL       string
	Model         string
	Params        bench.Parameters
	BackendParams bench.BackendParameters
}

// New builds the adapter for a provider. The error for an unknown provider
// is raised here, before any network call.
func New(provider backends.Provider, opts Options) (bench.Generator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("nil config provided to backend factory")
	}

	endpoint := opts.Config.Endpoint(string(provider))
	baseURL := endpoint.URL
	if override := strings.TrimSpace(opts.BaseURL); override != "" {
		baseURL = override
	}
	httpClient := backends.NewHTTPClient(opts.Params.Timeout(), opts.Params.Concurrency)

	switch provider {
	case backends.ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:       baseURL,
			Model:         opts.Model,
			Params:        opts.Params,
			BackendParams: opts.BackendParams,
			HTTPClient:    httpClient,
		}), nil
	case backends.ProviderLlamaCpp:
		return llamacpp.New(llamacpp.Config{
			BaseURL:    baseURL,
			Model:      opts.Model,
			APIKey:     endpoint.APIKey,
			Params:     opts.Params,
			HTTPClient: httpClient,
		}), nil
	case backends.ProviderVLLM:
		return openaicompat.New(openaicompat.Config{
			BaseURL:       baseURL,
			Model:         opts.Model,
			Params:        opts.Params,
			BackendParams: opts.BackendParams,
			HTTPClient:    httpClient,
		}), nil
	case backends.ProviderNIM:
		return openaicompat.New(openaicompat.Config{
			BaseURL:       baseURL,
			Model:         opts.Model,
			ModelOverride: opts.BackendParams.NIMModelName,
			APIKey:        endpoint.APIKey,
			Params:        opts.Params,
			BackendParams: opts.BackendParams,
			HTTPClient:    httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", backends.ErrUnsupportedProvider, provider)
	}
}
