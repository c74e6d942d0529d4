package safety

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/openvault/openvault/internal/observability"
	"github.com/openvault/openvault/internal/types"
)

// MaxTextLength is the largest input the analyzer accepts, in characters.
const MaxTextLength = 100_000

// analyzerVersion is reported in analysis metadata.
const analyzerVersion = "1.0.0"

// batchParallelism bounds concurrent analyses in BatchAnalyze.
const batchParallelism = 8

// Analyzer is a stateless content classifier. It runs a fixed set of
// detectors, one per violation category, and produces a scored verdict.
// An Analyzer is safe for concurrent use.
type Analyzer struct {
	detectors []Detector
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewAnalyzer creates an Analyzer with the built-in detector set.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		detectors: builtinDetectors(),
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger for the analyzer
func (a *Analyzer) WithLogger(logger *slog.Logger) *Analyzer {
	a.logger = logger
	return a
}

// WithTracer sets the OpenTelemetry tracer for the analyzer
func (a *Analyzer) WithTracer(tracer trace.Tracer) *Analyzer {
	a.tracer = tracer
	return a
}

// WithDetectors replaces the detector set. Intended for tests and for callers
// that need a narrower taxonomy.
func (a *Analyzer) WithDetectors(detectors ...Detector) *Analyzer {
	a.detectors = detectors
	return a
}

// Analyze scans text and returns a safety verdict. analysisContext is an
// optional hint ("educational", "medical", ...) that can soften detector
// confidence; pass the empty string when no context applies.
//
// Analyze returns an error only for malformed input (empty or over the length
// limit). Individual detector failures are logged and treated as
// "no violation from this detector".
func (a *Analyzer) Analyze(ctx context.Context, text string, analysisContext string) (AnalysisResult, error) {
	if text == "" {
		return AnalysisResult{}, types.NewError(types.VALIDATION_EMPTY_TEXT, "text must not be empty")
	}
	if len(text) > MaxTextLength {
		return AnalysisResult{}, types.NewError(types.VALIDATION_TEXT_TOO_LONG,
			fmt.Sprintf("text length %d exceeds maximum of %d", len(text), MaxTextLength))
	}

	var span trace.Span
	if a.tracer != nil {
		ctx, span = a.tracer.Start(ctx, "safety.analyze",
			trace.WithAttributes(attribute.Int("text.length", len(text))),
		)
		defer span.End()
	}

	start := time.Now()
	var violations []Violation

	for _, detector := range a.detectors {
		violation, err := detector.Detect(text)
		if err != nil {
			observability.WithTrace(ctx, a.logger).WarnContext(ctx, "detector failed, skipping",
				"detector", detector.Name(),
				"error", err,
			)
			continue
		}
		if violation != nil {
			violations = append(violations, *violation)
		}
	}

	if analysisContext != "" {
		violations = softenForContext(violations, analysisContext)
	}

	score := ScoreViolations(violations)
	result := AnalysisResult{
		Safe:       IsSafe(score, violations),
		Score:      score,
		Violations: violations,
		Metadata: AnalysisMetadata{
			AnalysisTimeMs: time.Since(start).Milliseconds(),
			ModelVersion:   analyzerVersion,
			Timestamp:      time.Now().UTC(),
		},
	}

	if span != nil {
		span.SetAttributes(
			attribute.Bool("safety.safe", result.Safe),
			attribute.Float64("safety.score", result.Score),
			attribute.Int("safety.violations", len(result.Violations)),
		)
	}

	return result, nil
}

// BatchAnalyze analyzes several texts concurrently. Results are returned in
// input order. An item that fails analysis yields an unsafe zero-score result
// rather than failing the batch.
func (a *Analyzer) BatchAnalyze(ctx context.Context, texts []string, analysisContext string) []AnalysisResult {
	results := make([]AnalysisResult, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			result, err := a.Analyze(gctx, text, analysisContext)
			if err != nil {
				a.logger.WarnContext(gctx, "batch item failed analysis",
					"index", i,
					"error", err,
				)
				results[i] = AnalysisResult{
					Safe:  false,
					Score: 0,
					Metadata: AnalysisMetadata{
						ModelVersion: analyzerVersion,
						Timestamp:    time.Now().UTC(),
					},
				}
				return nil
			}
			results[i] = result
			return nil
		})
	}

	// Workers never return errors; Wait only orders completion.
	_ = g.Wait()

	return results
}

// contextSofteners are hints that indicate quoted, clinical, or scholarly use
// of otherwise-flagged language.
var contextSofteners = []string{"medical", "educational", "academic", "research", "quotation"}

// softenForContext steps down severity one level for critical and high
// violations when the analysis context indicates legitimate discussion, and
// scales confidence accordingly.
func softenForContext(violations []Violation, analysisContext string) []Violation {
	lower := strings.ToLower(analysisContext)
	matched := false
	for _, softener := range contextSofteners {
		if strings.Contains(lower, softener) {
			matched = true
			break
		}
	}
	if !matched {
		return violations
	}

	softened := make([]Violation, len(violations))
	for i, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			v.Severity = SeverityHigh
			v.Confidence *= 0.7
		case SeverityHigh:
			v.Severity = SeverityMedium
			v.Confidence *= 0.8
		}
		softened[i] = v
	}
	return softened
}
