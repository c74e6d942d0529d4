package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/types"
)

func TestRateLimitedProviderDelegates(t *testing.T) {
	inner := &stubProvider{
		name:   "inner",
		health: types.NewHealthStatus(types.HealthStateHealthy, ""),
	}
	limited := NewRateLimitedProvider(inner, 100, 10)

	assert.Equal(t, "inner", limited.Name())

	resp, err := limited.Complete(context.Background(), CompletionRequest{
		Model:    "m",
		Messages: []Message{NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "stub", resp.Message.Content)

	models, err := limited.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)

	assert.True(t, limited.Health(context.Background()).IsHealthy())
}

func TestRateLimitedProviderCanceledContext(t *testing.T) {
	inner := &stubProvider{name: "inner"}
	// Zero rate: Wait can never acquire a token, so cancellation is the
	// only way out.
	limited := NewRateLimitedProvider(inner, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := limited.Complete(ctx, CompletionRequest{
		Model:    "m",
		Messages: []Message{NewUserMessage("hi")},
	})
	assert.Error(t, err)
}
