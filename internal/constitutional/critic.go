package constitutional

import (
	"context"
	"fmt"
	"regexp"
)

// Critic evaluates a text against a single principle and proposes revisions.
// Implementations must be safe for concurrent use.
type Critic interface {
	// Critique evaluates text against the principle. The returned critique
	// reports whether a violation was found; it is recorded either way.
	Critique(ctx context.Context, text string, principle Principle) (Critique, error)

	// Revise rewrites text to address the critique explanation. It returns
	// the revised text, which may equal the input when nothing changed.
	Revise(ctx context.Context, text string, principle Principle, explanation string) (string, error)
}

// rulePattern couples a detection pattern with the replacement used to
// revise matching spans out of the text.
type rulePattern struct {
	re          *regexp.Regexp
	severity    CritiqueSeverity
	explanation string
	replacement string
	suggestion  string
}

// RuleCritic is a deterministic, pattern-based Critic. It needs no external
// model and is the default critic when no completion provider is configured.
type RuleCritic struct {
	patterns map[string][]rulePattern
}

// NewRuleCritic creates a rule-based critic covering the default principles
func NewRuleCritic() *RuleCritic {
	return &RuleCritic{
		patterns: map[string][]rulePattern{
			"harmlessness": {
				{
					re:          regexp.MustCompile(`(?i)\b(kill|murder|attack|hurt|harm|destroy)\s+(someone|people|person|them|him|her)\b`),
					severity:    CritiqueSeverityHigh,
					explanation: "the text describes violence directed at a person",
					replacement: "[removed]",
					suggestion:  "remove the violent phrasing",
				},
				{
					re:          regexp.MustCompile(`(?i)\b(how to|instructions for)\s+(make|build|create)\s+(bomb|weapon|explosive|poison)\b`),
					severity:    CritiqueSeverityHigh,
					explanation: "the text solicits instructions for creating a weapon",
					replacement: "[removed]",
					suggestion:  "remove the weapon-construction request",
				},
			},
			"privacy": {
				{
					re:          regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
					severity:    CritiqueSeverityHigh,
					explanation: "the text contains an email address",
					replacement: "[redacted]",
					suggestion:  "redact the email address",
				},
				{
					re:          regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
					severity:    CritiqueSeverityHigh,
					explanation: "the text contains a social security number",
					replacement: "[redacted]",
					suggestion:  "redact the identifier",
				},
				{
					re:          regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
					severity:    CritiqueSeverityMedium,
					explanation: "the text contains a phone number",
					replacement: "[redacted]",
					suggestion:  "redact the phone number",
				},
			},
			"truthfulness": {
				{
					re:          regexp.MustCompile(`(?i)\b(definitely|absolutely|100%|guaranteed)\s+(cure|cures|prevent|prevents|causes)\b`),
					severity:    CritiqueSeverityMedium,
					explanation: "the text makes an unfounded absolute claim",
					replacement: "may affect",
					suggestion:  "soften the claim or cite evidence",
				},
			},
			"respectfulness": {
				{
					re:          regexp.MustCompile(`(?i)\b(stupid|idiot|moron|dumb)\b`),
					severity:    CritiqueSeverityLow,
					explanation: "the text contains an insult",
					replacement: "[removed]",
					suggestion:  "remove the insulting language",
				},
				{
					re:          regexp.MustCompile(`(?i)\b(all|every)\s+(women|men|people from)\b.{0,40}\b(are|is)\b`),
					severity:    CritiqueSeverityMedium,
					explanation: "the text contains a demeaning generalization",
					replacement: "[generalization removed]",
					suggestion:  "avoid generalizing about groups",
				},
			},
		},
	}
}

// Critique evaluates text against the patterns registered for the principle.
// A principle with no registered patterns never flags a violation.
func (c *RuleCritic) Critique(ctx context.Context, text string, principle Principle) (Critique, error) {
	for _, p := range c.patterns[principle.ID] {
		if p.re.MatchString(text) {
			return Critique{
				Principle:    principle.Name,
				HasViolation: true,
				Explanation:  p.explanation,
				Severity:     p.severity,
				Suggestions:  []string{p.suggestion},
			}, nil
		}
	}

	return Critique{
		Principle:   principle.Name,
		Explanation: fmt.Sprintf("no %s concerns found", principle.ID),
	}, nil
}

// Revise replaces every span matching the principle's patterns, so the
// revised text no longer triggers the same critique.
func (c *RuleCritic) Revise(ctx context.Context, text string, principle Principle, explanation string) (string, error) {
	revised := text
	for _, p := range c.patterns[principle.ID] {
		revised = p.re.ReplaceAllString(revised, p.replacement)
	}
	return revised, nil
}
