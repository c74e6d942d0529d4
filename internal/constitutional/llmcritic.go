package constitutional

import (
	"context"
	"strings"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/types"
)

// LLMCritic implements Critic by delegating critique and revision to a
// completion provider, filling the principle's prompt templates.
type LLMCritic struct {
	provider    llm.Provider
	model       string
	temperature float64
}

// NewLLMCritic creates a critic backed by the given provider and model
func NewLLMCritic(provider llm.Provider, model string) *LLMCritic {
	return &LLMCritic{
		provider:    provider,
		model:       model,
		temperature: 0.2,
	}
}

func fillTemplate(template string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Critique asks the provider to evaluate text against the principle. The
// provider is expected to answer "NO_VIOLATION" or a "SEVERITY:" line
// followed by an explanation; anything else is treated as a medium-severity
// finding with the full answer as explanation.
func (c *LLMCritic) Critique(ctx context.Context, text string, principle Principle) (Critique, error) {
	prompt := fillTemplate(principle.CritiqueTemplate, map[string]string{
		"text":        text,
		"principle":   principle.Name,
		"description": principle.Description,
	})

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    []llm.Message{llm.NewUserMessage(prompt)},
		Temperature: c.temperature,
	})
	if err != nil {
		return Critique{}, types.WrapError(types.SAFETY_REVISION_FAILED, "critique call failed", err)
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if strings.HasPrefix(strings.ToUpper(answer), "NO_VIOLATION") {
		return Critique{
			Principle:   principle.Name,
			Explanation: "no violation found",
		}, nil
	}

	severity := CritiqueSeverityMedium
	explanation := answer
	if rest, ok := strings.CutPrefix(strings.ToUpper(answer), "SEVERITY:"); ok {
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			switch strings.ToLower(fields[0]) {
			case "high":
				severity = CritiqueSeverityHigh
			case "low":
				severity = CritiqueSeverityLow
			}
		}
		if idx := strings.IndexByte(answer, '\n'); idx >= 0 {
			explanation = strings.TrimSpace(answer[idx+1:])
		}
	}

	return Critique{
		Principle:    principle.Name,
		HasViolation: true,
		Explanation:  explanation,
		Severity:     severity,
	}, nil
}

// Revise asks the provider to rewrite text so it satisfies the principle
func (c *LLMCritic) Revise(ctx context.Context, text string, principle Principle, explanation string) (string, error) {
	prompt := fillTemplate(principle.ReviseTemplate, map[string]string{
		"text":        text,
		"principle":   principle.Name,
		"description": principle.Description,
		"explanation": explanation,
	})

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    []llm.Message{llm.NewUserMessage(prompt)},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", types.WrapError(types.SAFETY_REVISION_FAILED, "revision call failed", err)
	}

	revised := strings.TrimSpace(resp.Message.Content)
	if revised == "" {
		return text, nil
	}
	return revised, nil
}
