package providers

import (
	"fmt"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/types"
)

// NewProvider creates a completion provider from configuration. When the
// config sets a rate limit, the provider is wrapped with a limiter.
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	var (
		provider llm.Provider
		err      error
	)

	switch cfg.Type {
	case llm.ProviderAnthropic:
		provider, err = NewAnthropicProvider(cfg)

	case llm.ProviderOpenAI:
		provider, err = NewOpenAIProvider(cfg)

	case llm.ProviderOllama:
		provider, err = NewOllamaProvider(cfg)

	case llm.ProviderMock:
		provider = NewMockProvider([]string{"Mock response"})

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}

	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimit, cfg.Burst)
	}

	return provider, nil
}
