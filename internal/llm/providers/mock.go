package providers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request   llm.CompletionRequest
	Streaming bool
}

// MockProvider implements llm.Provider for testing. It cycles through
// configured responses and records every request it receives.
type MockProvider struct {
	mu            sync.RWMutex
	responses     []string
	responseIndex int
	calls         []MockCall
	completeErr   error
}

// NewMockProvider creates a new mock provider
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		responses: responses,
		calls:     make([]MockCall, 0),
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Models returns mock model information
func (p *MockProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{
			Name:          "mock-model",
			ContextWindow: 4096,
			MaxOutput:     2048,
			Features:      []string{"chat", "streaming"},
		},
	}, nil
}

// Complete generates a completion
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	if p.completeErr != nil {
		err := p.completeErr
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, llm.NewCompletionError("no responses configured", nil)
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	p.mu.Unlock()

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

// Stream generates a streaming completion, emitting the response in 5-byte
// chunks followed by a final chunk carrying the finish reason.
func (p *MockProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req, Streaming: true})

	if p.completeErr != nil {
		err := p.completeErr
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, llm.NewCompletionError("no responses configured", nil)
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	p.mu.Unlock()

	chunkChan := make(chan llm.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		chunkSize := 5
		for i := 0; i < len(response); i += chunkSize {
			end := i + chunkSize
			if end > len(response) {
				end = len(response)
			}

			select {
			case <-ctx.Done():
				return
			case chunkChan <- llm.StreamChunk{
				Delta: llm.StreamDelta{
					Content: response[i:end],
				},
			}:
			}
		}

		select {
		case <-ctx.Done():
		case chunkChan <- llm.StreamChunk{
			FinishReason: llm.FinishReasonStop,
		}:
		}
	}()

	return chunkChan, nil
}

// Health checks the provider health
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.NewHealthStatus(types.HealthStateHealthy, "")
}

// GetCalls returns all recorded calls
func (p *MockProvider) GetCalls() []MockCall {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of recorded calls
func (p *MockProvider) CallCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.calls)
}

// Reset clears recorded calls and restarts response cycling
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = make([]MockCall, 0)
	p.responseIndex = 0
}

// SetResponses replaces all responses
func (p *MockProvider) SetResponses(responses []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.responses = responses
	p.responseIndex = 0
}

// FailWith makes Complete and Stream return err instead of a response
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeErr = err
}
