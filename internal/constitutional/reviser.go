package constitutional

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openvault/openvault/internal/types"
)

// DefaultMaxRevisions bounds the number of critique/revision passes when the
// caller does not set a limit.
const DefaultMaxRevisions = 3

// Reviser drives the bounded critique and revision loop over a principle set.
type Reviser struct {
	critic   Critic
	registry []Principle
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewReviser creates a reviser over the default principle registry
func NewReviser(critic Critic) *Reviser {
	return &Reviser{
		critic:   critic,
		registry: DefaultPrinciples(),
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the reviser
func (r *Reviser) WithLogger(logger *slog.Logger) *Reviser {
	r.logger = logger
	return r
}

// WithTracer sets the tracer for the reviser
func (r *Reviser) WithTracer(tracer trace.Tracer) *Reviser {
	r.tracer = tracer
	return r
}

// WithPrinciples replaces the principle registry
func (r *Reviser) WithPrinciples(principles []Principle) *Reviser {
	r.registry = principles
	return r
}

// ApplyPrinciples runs up to maxRevisions critique/revision passes over text.
// principleIDs filters the registry; an empty list selects every registered
// principle. A maxRevisions of zero or less uses DefaultMaxRevisions.
//
// The revision count reflects actual text mutations, not passes. Individual
// critic failures are logged and skipped; they mark the result as not applied
// successfully but never abort the loop.
func (r *Reviser) ApplyPrinciples(ctx context.Context, text string, principleIDs []string, maxRevisions int) (*RevisionResult, error) {
	if text == "" {
		return nil, types.NewError(types.VALIDATION_EMPTY_TEXT, "text cannot be empty")
	}
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}

	selected := selectPrinciples(r.registry, principleIDs)
	sortByPriority(selected)

	names := make([]string, len(selected))
	for i, p := range selected {
		names[i] = p.Name
	}

	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "constitutional.apply_principles",
			trace.WithAttributes(
				attribute.Int("principles.count", len(selected)),
				attribute.Int("revisions.max", maxRevisions),
			))
		defer span.End()
	}

	result := &RevisionResult{
		Original:            text,
		Revised:             text,
		Critiques:           make([]Critique, 0, len(selected)),
		PrinciplesApplied:   names,
		AppliedSuccessfully: true,
	}

	if len(selected) == 0 {
		result.Converged = true
		return result, nil
	}

	current := text
	for pass := 0; pass < maxRevisions; pass++ {
		violationInPass := false

		for _, principle := range selected {
			critique, err := r.critic.Critique(ctx, current, principle)
			if err != nil {
				r.logger.WarnContext(ctx, "critique failed, skipping principle",
					"principle", principle.ID,
					"pass", pass,
					"error", err)
				result.AppliedSuccessfully = false
				continue
			}
			result.Critiques = append(result.Critiques, critique)

			if !critique.HasViolation {
				continue
			}
			violationInPass = true

			revised, err := r.critic.Revise(ctx, current, principle, critique.Explanation)
			if err != nil {
				r.logger.WarnContext(ctx, "revision failed, keeping current text",
					"principle", principle.ID,
					"pass", pass,
					"error", err)
				result.AppliedSuccessfully = false
				continue
			}

			if revised != current {
				current = revised
				result.RevisionCount++
			}
		}

		if !violationInPass {
			result.Converged = true
			break
		}
	}

	result.Revised = current

	if span != nil {
		span.SetAttributes(
			attribute.Int("revisions.applied", result.RevisionCount),
			attribute.Bool("converged", result.Converged),
		)
	}
	r.logger.DebugContext(ctx, "principle application complete",
		"revisions", result.RevisionCount,
		"converged", result.Converged,
		"critiques", len(result.Critiques))

	return result, nil
}
