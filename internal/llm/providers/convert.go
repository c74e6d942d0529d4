package providers

import (
	"context"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/openvault/openvault/internal/llm"
)

// toSchemaMessages converts OpenVault messages to langchaingo MessageContent
func toSchemaMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		var role schema.ChatMessageType

		switch msg.Role {
		case llm.RoleSystem:
			role = schema.ChatMessageTypeSystem
		case llm.RoleUser:
			role = schema.ChatMessageTypeHuman
		case llm.RoleAssistant:
			role = schema.ChatMessageTypeAI
		default:
			role = schema.ChatMessageTypeHuman
		}

		result = append(result, llms.MessageContent{
			Role: role,
			Parts: []llms.ContentPart{
				llms.TextPart(msg.Content),
			},
		})
	}

	return result
}

// fromLangchainResponse converts a langchaingo response to an OpenVault response
func fromLangchainResponse(resp *llms.ContentResponse, model string) *llm.CompletionResponse {
	if resp == nil {
		return &llm.CompletionResponse{
			Model: model,
			ID:    uuid.New().String(),
		}
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Content
	}

	finishReason := llm.FinishReasonStop
	if len(resp.Choices) > 0 {
		switch resp.Choices[0].StopReason {
		case "length", "max_tokens":
			finishReason = llm.FinishReasonLength
		case "content_filter":
			finishReason = llm.FinishReasonContentFilter
		default:
			finishReason = llm.FinishReasonStop
		}
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: content,
		},
		FinishReason: finishReason,
		Usage:        llm.TokenUsage{},
	}
}

// buildCallOptions converts an OpenVault request to langchaingo call options
func buildCallOptions(req llm.CompletionRequest) []llms.CallOption {
	callOpts := make([]llms.CallOption, 0)

	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}

	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	if req.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(req.TopP))
	}

	if len(req.StopSequences) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(req.StopSequences))
	}

	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}

	return callOpts
}

// buildStreamingCallOptions builds call options with streaming
func buildStreamingCallOptions(req llm.CompletionRequest, streamFunc func(ctx context.Context, chunk []byte) error) []llms.CallOption {
	callOpts := buildCallOptions(req)
	callOpts = append(callOpts, llms.WithStreamingFunc(streamFunc))
	return callOpts
}
