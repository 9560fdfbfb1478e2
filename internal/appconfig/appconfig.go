// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application
// configuration. The config is loaded once at process start and passed by
// reference to every component that needs it; nothing mutates it afterward.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for benchmark requests.
	defaultRequestTimeout = 120 * time.Second
)

// Default base URLs for backends running on the local machine.
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultVLLMURL     = "http://localhost:8000"
	DefaultNIMURL      = "http://localhost:8001"
	DefaultLlamaCppURL = "http://localhost:8080"
)

// Endpoint describes how to reach one inference backend.
type Endpoint struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey,omitempty"`
}

// Defaults seeds benchmark parameters when flags do not override them.
type Defaults struct {
	RequestCount   int `json:"requestCount,omitempty"`
	Concurrency    int `json:"concurrency,omitempty"`
	WarmupRequests int `json:"warmupRequests,omitempty"`
}

// Config represents the top-level application configuration.
type Config struct {
	Ollama   Endpoint `json:"ollama"`
	VLLM     Endpoint `json:"vllm"`
	NIM      Endpoint `json:"nim"`
	LlamaCpp Endpoint `json:"llamacpp"`

	Defaults       Defaults `json:"defaults"`
	TimeoutSeconds int      `json:"timeout,omitempty"`
	Debug          bool     `json:"debug"`
	LogFile        string   `json:"logFile,omitempty"`
	ConfigPath     string   `json:"-"`
}

// Endpoint returns the configured endpoint for a provider name, applying
// the local default URL when the config leaves it empty.
func (c Config) Endpoint(provider string) Endpoint {
	var endpoint Endpoint
	var fallback string
	switch provider {
	case "ollama":
		endpoint, fallback = c.Ollama, DefaultOllamaURL
	case "vllm":
		endpoint, fallback = c.VLLM, DefaultVLLMURL
	case "nim":
		endpoint, fallback = c.NIM, DefaultNIMURL
	case "llamacpp":
		endpoint, fallback = c.LlamaCpp, DefaultLlamaCppURL
	default:
		return Endpoint{}
	}
	if strings.TrimSpace(endpoint.URL) == "" {
		endpoint.URL = fallback
	}
	return endpoint
}

// RequestTimeout returns the timeout duration for benchmark requests,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a
// default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "metron.log"
}

// Load reads the application configuration from the specified path. A
// missing file yields a usable all-defaults config; a present-but-invalid
// file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Config{ConfigPath: path}, nil
	}
	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ApplyEnv overlays API keys from the environment, mirroring the deployment
// convention of passing credentials outside the config file.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("METRON_NGC_API_KEY"); key != "" {
		c.NIM.APIKey = key
	}
	if key := os.Getenv("METRON_LLAMACPP_API_KEY"); key != "" {
		c.LlamaCpp.APIKey = key
	}
}
