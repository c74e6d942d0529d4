package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/openvault/openvault/internal/types"
)

// RateLimitedProvider wraps a Provider with a token-bucket rate limiter.
// Complete and Stream block until a token is available or the context is
// canceled.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps provider with a limiter allowing rps requests
// per second with the given burst size.
func NewRateLimitedProvider(provider Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		inner:   provider,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}

func (p *RateLimitedProvider) Models(ctx context.Context) ([]ModelInfo, error) {
	return p.inner.Models(ctx)
}

func (p *RateLimitedProvider) Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, types.WrapError(ErrContextCanceled, "rate limiter wait interrupted", err)
	}
	return p.inner.Complete(ctx, request)
}

func (p *RateLimitedProvider) Stream(ctx context.Context, request CompletionRequest) (<-chan StreamChunk, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, types.WrapError(ErrContextCanceled, "rate limiter wait interrupted", err)
	}
	return p.inner.Stream(ctx, request)
}

func (p *RateLimitedProvider) Health(ctx context.Context) types.HealthStatus {
	return p.inner.Health(ctx)
}
