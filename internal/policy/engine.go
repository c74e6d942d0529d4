package policy

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openvault/openvault/internal/safety"
)

// Engine evaluates an ordered set of policy rules against text and merges the
// resulting violations into a base analysis verdict. An Engine is safe for
// concurrent use once constructed.
type Engine struct {
	evaluators map[ConditionType]ConditionEvaluator
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewEngine creates an Engine with the built-in regex and keyword_list
// evaluators. Pluggable condition types start as NotConfigured and never
// trigger until a backend is wired via WithEvaluator.
func NewEngine() *Engine {
	return &Engine{
		evaluators: map[ConditionType]ConditionEvaluator{
			ConditionRegex:              &regexEvaluator{},
			ConditionKeywordList:        &keywordEvaluator{},
			ConditionSemanticSimilarity: NewNotConfigured(ConditionSemanticSimilarity),
			ConditionModelThreshold:     NewNotConfigured(ConditionModelThreshold),
			ConditionScript:             NewNotConfigured(ConditionScript),
		},
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the engine
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// WithTracer sets the OpenTelemetry tracer for the engine
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer
	return e
}

// WithEvaluator wires a condition evaluator, replacing the existing one for
// its type. Use this to plug real semantic_similarity or model_threshold
// backends.
func (e *Engine) WithEvaluator(evaluator ConditionEvaluator) *Engine {
	e.evaluators[evaluator.Type()] = evaluator
	return e
}

// UnconfiguredTypes returns the condition types currently served by
// NotConfigured evaluators. Callers can use this to surface misconfiguration
// when policies depend on pluggable conditions.
func (e *Engine) UnconfiguredTypes() []ConditionType {
	var unconfigured []ConditionType
	for conditionType, evaluator := range e.evaluators {
		if !evaluator.Configured() {
			unconfigured = append(unconfigured, conditionType)
		}
	}
	return unconfigured
}

// Apply evaluates the policy's rules in declaration order against the text
// and returns an updated copy of the base result with policy violations
// appended and the score recomputed. The base result is never mutated.
//
// A nil or inactive policy returns the base result unchanged with a warning.
// A malformed rule (missing or mistyped parameters) is skipped and treated as
// non-triggering; rule failures never escalate to the caller.
func (e *Engine) Apply(ctx context.Context, text string, base safety.AnalysisResult, policy *SafetyPolicy) safety.AnalysisResult {
	if policy == nil || !policy.IsActive {
		e.logger.WarnContext(ctx, "policy missing or inactive, using analyzer verdict unmodified")
		return base
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "policy.apply",
			trace.WithAttributes(
				attribute.String("policy.id", policy.ID),
				attribute.String("policy.name", policy.Name),
				attribute.Int("policy.rules", len(policy.Rules)),
			),
		)
		defer span.End()
	}

	violations := make([]safety.Violation, len(base.Violations), len(base.Violations)+len(policy.Rules))
	copy(violations, base.Violations)

	blocked := false
	for _, rule := range policy.Rules {
		evaluator, ok := e.evaluators[rule.Condition.Type]
		if !ok {
			e.logger.WarnContext(ctx, "rule has unknown condition type, skipping",
				"policy", policy.ID,
				"rule", rule.ID,
				"condition_type", rule.Condition.Type,
			)
			continue
		}

		match, err := evaluator.Evaluate(ctx, text, rule.Condition.Parameters)
		if err != nil {
			e.logger.WarnContext(ctx, "rule condition failed to evaluate, treating as non-triggering",
				"policy", policy.ID,
				"rule", rule.ID,
				"error", err,
			)
			continue
		}
		if !match.Triggered {
			continue
		}

		// Escalation applies to violations already on the list; the rule's
		// own violation keeps its declared severity.
		if rule.Action == ActionEscalate {
			escalateViolations(violations, rule.ViolationType)
		}

		violations = append(violations, e.ruleViolation(rule, policy, match))

		if rule.Action == ActionBlock {
			blocked = true
		}
	}

	score := safety.ScoreViolations(violations)
	safe := safety.IsSafe(score, violations) && !blocked

	metadata := base.Metadata
	metadata.AppliedPolicyVersion = fmt.Sprintf("%s v%d", policy.Name, policy.Version)

	result := safety.AnalysisResult{
		Safe:       safe,
		Score:      score,
		Violations: violations,
		Metadata:   metadata,
	}

	if span != nil {
		span.SetAttributes(
			attribute.Bool("policy.blocked", blocked),
			attribute.Int("policy.violations_added", len(violations)-len(base.Violations)),
		)
	}

	return result
}

// escalateViolations steps up the severity of violations matching the rule's
// violation type. Confidence is untouched; the heavier severity weight flows
// into the recomputed score.
func escalateViolations(violations []safety.Violation, violationType safety.ViolationType) {
	if !violationType.IsValid() {
		return
	}
	for i := range violations {
		if violations[i].Type == violationType {
			violations[i].Severity = violations[i].Severity.Escalate()
		}
	}
}

// ruleViolation builds the violation recorded for a triggered rule.
func (e *Engine) ruleViolation(rule PolicyRule, policy *SafetyPolicy, match Match) safety.Violation {
	violationType := rule.ViolationType
	if !violationType.IsValid() {
		violationType = safety.ViolationPolicy
	}

	severity := rule.Severity
	if !severity.IsValid() {
		severity = safety.SeverityMedium
	}

	description := rule.Description
	if description == "" {
		description = fmt.Sprintf("policy rule %s triggered", rule.ID)
	}

	var evidence []string
	if match.Evidence != "" {
		evidence = []string{match.Evidence}
	}

	return safety.Violation{
		Type:         violationType,
		Severity:     severity,
		Description:  description,
		Evidence:     evidence,
		Confidence:   1.0,
		PolicySource: fmt.Sprintf("%s v%d (rule %s)", policy.Name, policy.Version, rule.ID),
	}
}
