package llm

import (
	"context"

	"github.com/openvault/openvault/internal/types"
)

// Provider defines the interface that all completion providers must
// implement. It provides a unified abstraction over the external LLM services
// the gateway fronts (OpenAI, Anthropic, local models, ...).
type Provider interface {
	// Name returns the provider name (e.g., "openai", "anthropic", "ollama")
	Name() string

	// Models returns information about all available models for this provider
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and streams the response as it is
	// generated. The returned channel emits StreamChunk items until completion
	// or error and is closed when streaming is done. Cancelling ctx aborts the
	// underlying stream; providers make a best-effort attempt to stop
	// generation.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Health checks the health status of the provider and its connectivity
	Health(ctx context.Context) types.HealthStatus
}

// ModelInfo contains metadata about a completion model.
type ModelInfo struct {
	// Name is the model identifier (e.g., "gpt-4o-mini")
	Name string `json:"name"`

	// ContextWindow is the maximum number of tokens the model can process
	ContextWindow int `json:"context_window"`

	// Features lists the capabilities this model supports
	Features []string `json:"features"`

	// MaxOutput is the maximum number of tokens the model can generate
	MaxOutput int `json:"max_output"`
}

// SupportsFeature checks if the model supports a given feature
func (m ModelInfo) SupportsFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// SupportsStreaming checks if the model supports streaming responses
func (m ModelInfo) SupportsStreaming() bool {
	return m.SupportsFeature("streaming")
}
