package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openvault/openvault/internal/audit"
	"github.com/openvault/openvault/internal/constitutional"
	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/policy"
	"github.com/openvault/openvault/internal/policy/store"
	"github.com/openvault/openvault/internal/safety"
	"github.com/openvault/openvault/internal/types"
)

// Orchestrator sequences the safety pipeline around a completion provider:
// pre-flight analysis, the provider call, post-flight analysis, and the
// mode-dependent revise/block/pass-through branch.
type Orchestrator struct {
	analyzer     *safety.Analyzer
	engine       *policy.Engine
	policies     store.Store
	provider     llm.Provider
	reviser      *constitutional.Reviser
	auditSink    audit.Sink
	logger       *slog.Logger
	tracer       trace.Tracer
	maxRevisions int
}

// New creates an orchestrator over the given pipeline stages. The policy
// store may be nil when no organization policies are in use.
func New(analyzer *safety.Analyzer, engine *policy.Engine, policies store.Store, provider llm.Provider, reviser *constitutional.Reviser) *Orchestrator {
	return &Orchestrator{
		analyzer:     analyzer,
		engine:       engine,
		policies:     policies,
		provider:     provider,
		reviser:      reviser,
		auditSink:    audit.NopSink{},
		logger:       slog.Default(),
		maxRevisions: constitutional.DefaultMaxRevisions,
	}
}

// WithAuditSink sets the audit sink for the orchestrator
func (o *Orchestrator) WithAuditSink(sink audit.Sink) *Orchestrator {
	o.auditSink = sink
	return o
}

// WithLogger sets the logger for the orchestrator
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	o.logger = logger
	return o
}

// WithTracer sets the OpenTelemetry tracer for the orchestrator
func (o *Orchestrator) WithTracer(tracer trace.Tracer) *Orchestrator {
	o.tracer = tracer
	return o
}

// WithMaxRevisions caps the revision passes used on unsafe output
func (o *Orchestrator) WithMaxRevisions(max int) *Orchestrator {
	o.maxRevisions = max
	return o
}

// Analyze runs the analyzer, and the policy engine when policyID is set,
// as a standalone operation outside the completion flow.
func (o *Orchestrator) Analyze(ctx context.Context, text string, policyID string) (safety.AnalysisResult, error) {
	return o.check(ctx, text, policyID, "")
}

// ApplyPrinciples exposes the constitutional reviser as a standalone
// operation outside the completion flow.
func (o *Orchestrator) ApplyPrinciples(ctx context.Context, text string, principleIDs []string, maxRevisions int) (*constitutional.RevisionResult, error) {
	return o.reviser.ApplyPrinciples(ctx, text, principleIDs, maxRevisions)
}

// check runs the analyzer and, when a policy id is supplied, layers the
// policy engine verdict on top. Policy lookup failures are recovered: the
// base analyzer verdict stands.
func (o *Orchestrator) check(ctx context.Context, text string, policyID string, analysisContext string) (safety.AnalysisResult, error) {
	result, err := o.analyzer.Analyze(ctx, text, analysisContext)
	if err != nil {
		return safety.AnalysisResult{}, err
	}

	if policyID == "" || o.policies == nil {
		return result, nil
	}

	pol, err := o.policies.ActiveByID(ctx, policyID)
	if err != nil {
		o.logger.WarnContext(ctx, "policy lookup failed, applying base verdict only",
			"policy_id", policyID,
			"error", err)
		return result, nil
	}

	return o.engine.Apply(ctx, text, result, pol), nil
}

// Run executes the non-streaming safe completion flow.
//
// Unsafe pre-flight input in strict mode blocks the request before the
// provider is ever called. Provider failures surface with their own error
// codes and are never reported as safety verdicts.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeBalanced
	}
	if !mode.IsValid() {
		return nil, types.NewError(types.VALIDATION_FAILED, "unknown safety mode: "+string(mode))
	}
	if err := req.Completion.Validate(); err != nil {
		return nil, err
	}

	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "orchestrator.run",
			trace.WithAttributes(attribute.String("safety.mode", string(mode))))
		defer span.End()
	}

	inputText := concatMessages(req.Completion.Messages)

	preflight, err := o.check(ctx, inputText, req.PolicyID, req.AnalysisContext)
	if err != nil {
		return nil, err
	}

	if !preflight.Safe && mode == ModeStrict {
		o.recordBlocked(ctx, req, "preflight", preflight.Violations)
		return nil, &SafetyBlockedError{Stage: "preflight", Violations: preflight.Violations}
	}

	providerResp, err := o.provider.Complete(ctx, req.Completion)
	if err != nil {
		o.recordFailure(ctx, req, err)
		return nil, err
	}

	text := providerResp.Message.Content
	outcome, err := o.gateOutput(ctx, req, mode, text)
	if err != nil {
		return nil, err
	}
	if outcome.blocked {
		o.recordBlocked(ctx, req, "postflight", outcome.violations)
		return nil, &SafetyBlockedError{Stage: "postflight", Violations: outcome.violations}
	}

	metadata := SafetyMetadata{
		InputSafetyScore:  preflight.Score,
		OutputSafetyScore: outcome.score,
		RevisionApplied:   outcome.revised,
		Violations:        append(preflight.Violations, outcome.violations...),
		Mode:              mode,
	}

	if span != nil {
		span.SetAttributes(
			attribute.Float64("safety.input_score", metadata.InputSafetyScore),
			attribute.Float64("safety.output_score", metadata.OutputSafetyScore),
			attribute.Bool("safety.revised", metadata.RevisionApplied),
		)
	}
	o.recordSuccess(ctx, req, metadata)

	return &Response{
		Text:           outcome.text,
		Model:          providerResp.Model,
		FinishReason:   providerResp.FinishReason,
		SafetyMetadata: metadata,
	}, nil
}

// outputOutcome is the result of gating generated text
type outputOutcome struct {
	text       string
	score      float64
	violations []safety.Violation
	revised    bool
	blocked    bool
}

// gateOutput runs the post-flight check and the mode-dependent branch over
// generated text.
func (o *Orchestrator) gateOutput(ctx context.Context, req Request, mode SafetyMode, text string) (outputOutcome, error) {
	// An empty completion has nothing to gate.
	if text == "" {
		return outputOutcome{text: text, score: 1.0}, nil
	}

	postflight, err := o.check(ctx, text, req.PolicyID, req.AnalysisContext)
	if err != nil {
		return outputOutcome{}, types.WrapError(types.INTERNAL_ERROR, "post-flight analysis failed", err)
	}

	outcome := outputOutcome{
		text:       text,
		score:      postflight.Score,
		violations: postflight.Violations,
	}
	if postflight.Safe {
		return outcome, nil
	}

	switch mode {
	case ModeStrict:
		revision, err := o.reviser.ApplyPrinciples(ctx, text, nil, o.maxRevisions)
		if err != nil {
			return outputOutcome{}, types.WrapError(types.SAFETY_REVISION_FAILED, "revision failed", err)
		}
		outcome.text = revision.Revised
		outcome.revised = revision.RevisionCount > 0

		recheck, err := o.check(ctx, revision.Revised, req.PolicyID, req.AnalysisContext)
		if err != nil {
			return outputOutcome{}, types.WrapError(types.INTERNAL_ERROR, "recheck failed", err)
		}
		outcome.score = recheck.Score
		outcome.violations = recheck.Violations
		outcome.blocked = !recheck.Safe

	case ModeBalanced:
		revision, err := o.reviser.ApplyPrinciples(ctx, text, nil, o.maxRevisions)
		if err != nil {
			return outputOutcome{}, types.WrapError(types.SAFETY_REVISION_FAILED, "revision failed", err)
		}
		outcome.text = revision.Revised
		outcome.revised = revision.RevisionCount > 0

		// The revised text is adopted regardless of the recheck verdict;
		// remaining violations are only reported.
		recheck, err := o.check(ctx, revision.Revised, req.PolicyID, req.AnalysisContext)
		if err != nil {
			return outputOutcome{}, types.WrapError(types.INTERNAL_ERROR, "recheck failed", err)
		}
		outcome.score = recheck.Score
		outcome.violations = recheck.Violations
		if !recheck.Safe {
			o.logger.WarnContext(ctx, "revised output still reports violations",
				"score", recheck.Score,
				"violations", len(recheck.Violations))
		}

	case ModePermissive:
		o.logger.WarnContext(ctx, "unsafe output passed through",
			"score", postflight.Score,
			"violations", len(postflight.Violations))
	}

	return outcome, nil
}

func (o *Orchestrator) recordBlocked(ctx context.Context, req Request, stage string, violations []safety.Violation) {
	event := audit.NewEvent("safe_completion", audit.StatusBlocked)
	event.ActorID = req.ActorID
	event.ErrorMessage = "safety check failed"
	event.Details = map[string]any{
		"stage":      stage,
		"mode":       string(req.Mode),
		"policy_id":  req.PolicyID,
		"violations": violations,
	}
	o.auditSink.Record(ctx, event)
}

func (o *Orchestrator) recordFailure(ctx context.Context, req Request, err error) {
	event := audit.NewEvent("safe_completion", audit.StatusFailure)
	event.ActorID = req.ActorID
	event.ErrorMessage = err.Error()
	event.Details = map[string]any{
		"mode":      string(req.Mode),
		"policy_id": req.PolicyID,
	}
	o.auditSink.Record(ctx, event)
}

func (o *Orchestrator) recordSuccess(ctx context.Context, req Request, metadata SafetyMetadata) {
	event := audit.NewEvent("safe_completion", audit.StatusSuccess)
	event.ActorID = req.ActorID
	event.Details = map[string]any{
		"mode":             string(metadata.Mode),
		"policy_id":        req.PolicyID,
		"input_score":      metadata.InputSafetyScore,
		"output_score":     metadata.OutputSafetyScore,
		"revision_applied": metadata.RevisionApplied,
	}
	o.auditSink.Record(ctx, event)
}

// concatMessages joins inbound message texts for the pre-flight check
func concatMessages(messages []llm.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n")
}
