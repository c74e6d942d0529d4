package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/llm"
)

func TestMockProviderComplete(t *testing.T) {
	provider := NewMockProvider([]string{"first", "second"})

	req := llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hello")},
	}

	resp, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)
	assert.Equal(t, llm.RoleAssistant, resp.Message.Role)
	assert.Equal(t, llm.FinishReasonStop, resp.FinishReason)
	assert.NotEmpty(t, resp.ID)

	resp, err = provider.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Message.Content)

	// Cycles back to the first response
	resp, err = provider.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)
}

func TestMockProviderRecordsCalls(t *testing.T) {
	provider := NewMockProvider([]string{"ok"})

	req := llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("one")},
	}
	_, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)

	_, err = provider.Stream(context.Background(), req)
	require.NoError(t, err)

	calls := provider.GetCalls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].Streaming)
	assert.True(t, calls[1].Streaming)
	assert.Equal(t, "one", calls[0].Request.Messages[0].Content)

	provider.Reset()
	assert.Equal(t, 0, provider.CallCount())
}

func TestMockProviderStream(t *testing.T) {
	provider := NewMockProvider([]string{"hello world from mock"})

	ch, err := provider.Stream(context.Background(), llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	var builder strings.Builder
	var finish llm.FinishReason
	for chunk := range ch {
		require.NoError(t, chunk.Error)
		builder.WriteString(chunk.Delta.Content)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}

	assert.Equal(t, "hello world from mock", builder.String())
	assert.Equal(t, llm.FinishReasonStop, finish)
}

func TestMockProviderStreamCanceled(t *testing.T) {
	provider := NewMockProvider([]string{strings.Repeat("x", 1000)})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := provider.Stream(ctx, llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	// Read one chunk then cancel; the channel must close without draining
	// the full response.
	<-ch
	cancel()

	count := 0
	for range ch {
		count++
	}
	assert.Less(t, count, 200)
}

func TestMockProviderNoResponses(t *testing.T) {
	provider := NewMockProvider(nil)

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	assert.Error(t, err)
}

func TestMockProviderFailWith(t *testing.T) {
	provider := NewMockProvider([]string{"ok"})
	provider.FailWith(llm.NewRateLimitError("mock"))

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}

func TestFactoryMockProvider(t *testing.T) {
	provider, err := NewProvider(llm.ProviderConfig{
		Name: "test-mock",
		Type: llm.ProviderMock,
	})
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}

func TestFactoryUnknownType(t *testing.T) {
	_, err := NewProvider(llm.ProviderConfig{
		Name: "bad",
		Type: llm.ProviderType("watson"),
	})
	assert.Error(t, err)
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider(llm.ProviderConfig{
		Name: "openai-main",
		Type: llm.ProviderOpenAI,
	})
	assert.Error(t, err)
}

func TestFactoryAcceptsEnvAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-12345")

	provider, err := NewProvider(llm.ProviderConfig{
		Name: "openai-main",
		Type: llm.ProviderOpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}

func TestFactoryAcceptsEnvAPIKeyAnthropic(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-12345")

	provider, err := NewProvider(llm.ProviderConfig{
		Name: "anthropic-main",
		Type: llm.ProviderAnthropic,
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
}
