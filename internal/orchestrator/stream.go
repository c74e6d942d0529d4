package orchestrator

import (
	"context"
	"strings"

	"github.com/openvault/openvault/internal/safety"
	"github.com/openvault/openvault/internal/types"
)

// streamWindowSize is the number of buffered characters that triggers a
// windowed safety check during streaming.
const streamWindowSize = 100

// InterruptionMarker is the delta emitted in place of generated content when
// a strict-mode windowed check stops the stream.
const InterruptionMarker = "[content interrupted by safety check]"

// RunStream executes the streaming safe completion flow.
//
// The pre-flight check runs before the provider stream is opened; in strict
// mode an unsafe input blocks the request with no provider call. While
// streaming, emitted text accumulates in a rolling buffer that is re-analyzed
// each time it exceeds streamWindowSize characters. Every content event
// carries the latest windowed verdict. In strict mode an unsafe window stops
// the stream: one interruption marker event is emitted, the provider stream
// is aborted best-effort, and the terminal event carries a SafetyBlockedError.
// In balanced and permissive modes the stream always runs to completion and
// the final full-text check determines the metadata on the terminal event.
func (o *Orchestrator) RunStream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
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

	inputText := concatMessages(req.Completion.Messages)
	preflight, err := o.check(ctx, inputText, req.PolicyID, req.AnalysisContext)
	if err != nil {
		return nil, err
	}

	if !preflight.Safe && mode == ModeStrict {
		o.recordBlocked(ctx, req, "preflight", preflight.Violations)
		return nil, &SafetyBlockedError{Stage: "preflight", Violations: preflight.Violations}
	}

	// The provider stream gets its own cancelable context so a strict-mode
	// interruption can abort it best-effort.
	streamCtx, cancel := context.WithCancel(ctx)

	chunks, err := o.provider.Stream(streamCtx, req.Completion)
	if err != nil {
		cancel()
		o.recordFailure(ctx, req, err)
		return nil, err
	}

	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)
		defer cancel()

		var full strings.Builder
		var window strings.Builder
		status := SafetyStatus{Safe: true, Score: 1.0}

		for chunk := range chunks {
			if chunk.Error != nil {
				o.recordFailure(ctx, req, chunk.Error)
				o.emit(ctx, events, StreamEvent{Error: chunk.Error})
				return
			}

			delta := chunk.Delta.Content
			if delta == "" {
				continue
			}

			full.WriteString(delta)
			window.WriteString(delta)

			if window.Len() >= streamWindowSize {
				result, checkErr := o.analyzer.Analyze(ctx, window.String(), req.AnalysisContext)
				window.Reset()
				if checkErr != nil {
					o.logger.WarnContext(ctx, "windowed check failed, keeping previous verdict", "error", checkErr)
				} else {
					status = SafetyStatus{Safe: result.Safe, Score: result.Score}

					if mode == ModeStrict && !result.Safe {
						o.interrupt(ctx, req, events, cancel, result.Violations)
						return
					}
				}
			}

			if !o.emit(ctx, events, StreamEvent{DeltaText: delta, SafetyStatus: status}) {
				return
			}
		}

		o.finishStream(ctx, req, mode, events, cancel, preflight.Score, full.String())
	}()

	return events, nil
}

// finishStream runs the final full-text check and emits the terminal event
func (o *Orchestrator) finishStream(ctx context.Context, req Request, mode SafetyMode, events chan<- StreamEvent, cancel context.CancelFunc, inputScore float64, fullText string) {
	metadata := SafetyMetadata{
		InputSafetyScore:  inputScore,
		OutputSafetyScore: 1.0,
		Mode:              mode,
	}
	finalSafe := true

	if fullText != "" {
		final, err := o.check(ctx, fullText, req.PolicyID, req.AnalysisContext)
		if err != nil {
			o.emit(ctx, events, StreamEvent{Error: types.WrapError(types.INTERNAL_ERROR, "final analysis failed", err)})
			return
		}

		if mode == ModeStrict && !final.Safe {
			o.interrupt(ctx, req, events, cancel, final.Violations)
			return
		}

		metadata.OutputSafetyScore = final.Score
		metadata.Violations = final.Violations
		finalSafe = final.Safe
		if !final.Safe {
			o.logger.WarnContext(ctx, "stream completed with unsafe verdict",
				"mode", string(mode),
				"score", final.Score,
				"violations", len(final.Violations))
		}
	}

	o.recordSuccess(ctx, req, metadata)
	o.emit(ctx, events, StreamEvent{Final: &metadata, SafetyStatus: SafetyStatus{Safe: finalSafe, Score: metadata.OutputSafetyScore}})
}

// interrupt emits the marker chunk, aborts the provider stream, and
// surfaces the safety error as the terminal event. No content events follow.
func (o *Orchestrator) interrupt(ctx context.Context, req Request, events chan<- StreamEvent, cancel context.CancelFunc, violations []safety.Violation) {
	unsafe := SafetyStatus{Safe: false, Score: safety.ScoreViolations(violations)}
	o.emit(ctx, events, StreamEvent{
		DeltaText:    InterruptionMarker,
		SafetyStatus: unsafe,
		Interruption: true,
	})

	// Best-effort abort of the underlying provider stream.
	cancel()

	o.recordBlocked(ctx, req, "stream", violations)
	o.emit(ctx, events, StreamEvent{
		SafetyStatus: unsafe,
		Error:        &SafetyBlockedError{Stage: "stream", Violations: violations},
	})
}

// emit delivers an event unless the caller has gone away
func (o *Orchestrator) emit(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}
