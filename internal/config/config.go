package config

import (
	"time"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/observability"
	"github.com/openvault/openvault/internal/orchestrator"
)

// Config is the root configuration for the gating service
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging" validate:"required"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
	Safety   SafetyConfig   `mapstructure:"safety" validate:"required"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ProviderConfig selects and configures the completion provider
type ProviderConfig struct {
	Name         string        `mapstructure:"name" validate:"required"`
	Type         string        `mapstructure:"type" validate:"required,oneof=openai anthropic ollama mock"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"omitempty,url"`
	DefaultModel string        `mapstructure:"default_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RateLimit    float64       `mapstructure:"rate_limit" validate:"min=0"`
	Burst        int           `mapstructure:"burst" validate:"min=0"`
}

// ToProviderConfig converts the section to the provider layer's config type
func (c ProviderConfig) ToProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Name:         c.Name,
		Type:         llm.ProviderType(c.Type),
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		DefaultModel: c.DefaultModel,
		Timeout:      c.Timeout,
		MaxRetries:   c.MaxRetries,
		RateLimit:    c.RateLimit,
		Burst:        c.Burst,
	}
}

// SafetyConfig controls the gating pipeline
type SafetyConfig struct {
	Mode            string `mapstructure:"mode" validate:"required,oneof=strict balanced permissive"`
	MaxRevisions    int    `mapstructure:"max_revisions" validate:"min=1,max=10"`
	AnalysisContext string `mapstructure:"analysis_context"`
}

// Mode returns the configured safety mode as its typed value
func (c SafetyConfig) SafetyMode() orchestrator.SafetyMode {
	return orchestrator.SafetyMode(c.Mode)
}

// PolicyConfig locates the organization policy store
type PolicyConfig struct {
	DatabasePath    string `mapstructure:"database_path"`
	DefaultPolicyID string `mapstructure:"default_policy_id"`
}

// AuditConfig selects the audit sink backend
type AuditConfig struct {
	Backend      string `mapstructure:"backend" validate:"omitempty,oneof=log sqlite none"`
	DatabasePath string `mapstructure:"database_path"`
}

// TracingConfig controls span export for the pipeline
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// ToTracingConfig converts the section to the observability layer's config type
func (c TracingConfig) ToTracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Enabled,
		Endpoint:    c.Endpoint,
		Insecure:    c.Insecure,
		SampleRate:  c.SampleRate,
		ServiceName: "openvault",
	}
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Provider: ProviderConfig{
			Name:       "mock",
			Type:       "mock",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Safety: SafetyConfig{
			Mode:         "balanced",
			MaxRevisions: 3,
		},
		Audit: AuditConfig{
			Backend: "log",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
	}
}
