package llm

import (
	"os"
	"time"

	"github.com/openvault/openvault/internal/types"
)

// ProviderType identifies a completion provider implementation
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// IsValid checks if the provider type is recognized
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderMock:
		return true
	default:
		return false
	}
}

// EnvAPIKey returns the conventional environment variable holding the
// provider's API key, or the empty string for types that need none.
func (p ProviderType) EnvAPIKey() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// ProviderConfig holds the connection settings for a single completion
// provider instance.
type ProviderConfig struct {
	Name         string        `yaml:"name" json:"name" validate:"required"`
	Type         ProviderType  `yaml:"type" json:"type" validate:"required"`
	APIKey       string        `yaml:"api_key" json:"api_key,omitempty"`
	BaseURL      string        `yaml:"base_url" json:"base_url,omitempty"`
	DefaultModel string        `yaml:"default_model" json:"default_model,omitempty"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout,omitempty"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries,omitempty"`

	// RateLimit caps requests per second when greater than zero.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit,omitempty"`
	Burst     int     `yaml:"burst" json:"burst,omitempty"`
}

// Validate checks the provider configuration for correctness
func (c *ProviderConfig) Validate() error {
	if c.Name == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "provider name is required")
	}
	if !c.Type.IsValid() {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "unknown provider type: "+string(c.Type))
	}
	switch c.Type {
	case ProviderOpenAI, ProviderAnthropic:
		// The key may come from the conventional environment variable
		// instead of the config file; the provider constructor reads it.
		if c.APIKey == "" && os.Getenv(c.Type.EnvAPIKey()) == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED, "api_key is required for provider "+c.Name)
		}
	}
	if c.Timeout < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "rate_limit must not be negative")
	}
	return nil
}

// ApplyDefaults fills zero-valued optional fields
func (c *ProviderConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Burst == 0 && c.RateLimit > 0 {
		c.Burst = 1
	}
}
