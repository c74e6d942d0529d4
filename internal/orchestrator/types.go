package orchestrator

import (
	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/safety"
)

// SafetyMode controls how aggressively unsafe content is blocked versus
// auto-revised versus merely logged.
type SafetyMode string

const (
	// ModeStrict blocks unsafe input before the provider is called and
	// blocks unsafe output that revision cannot fix.
	ModeStrict SafetyMode = "strict"

	// ModeBalanced revises unsafe output and passes the revision through
	// even if violations remain.
	ModeBalanced SafetyMode = "balanced"

	// ModePermissive only logs unsafe findings; text passes unchanged.
	ModePermissive SafetyMode = "permissive"
)

// IsValid checks if the safety mode is recognized
func (m SafetyMode) IsValid() bool {
	switch m {
	case ModeStrict, ModeBalanced, ModePermissive:
		return true
	default:
		return false
	}
}

// Request is a gated completion request
type Request struct {
	// Completion is forwarded to the provider after the pre-flight check.
	Completion llm.CompletionRequest `json:"completion"`

	// Mode selects the safety behavior; empty defaults to balanced.
	Mode SafetyMode `json:"mode,omitempty"`

	// PolicyID selects an organization policy evaluated on top of the
	// built-in analyzer. Empty skips the policy engine.
	PolicyID string `json:"policy_id,omitempty"`

	// ActorID identifies the caller in audit events.
	ActorID string `json:"actor_id,omitempty"`

	// AnalysisContext optionally softens detector confidence for
	// legitimate clinical or scholarly discussion.
	AnalysisContext string `json:"analysis_context,omitempty"`
}

// SafetyMetadata summarizes the safety work done around a completion
type SafetyMetadata struct {
	InputSafetyScore  float64            `json:"input_safety_score"`
	OutputSafetyScore float64            `json:"output_safety_score"`
	RevisionApplied   bool               `json:"revision_applied"`
	Violations        []safety.Violation `json:"violations"`
	Mode              SafetyMode         `json:"mode"`
}

// Response is a gated completion result
type Response struct {
	Text           string           `json:"text"`
	Model          string           `json:"model,omitempty"`
	FinishReason   llm.FinishReason `json:"finish_reason,omitempty"`
	SafetyMetadata SafetyMetadata   `json:"safety_metadata"`
}

// SafetyStatus is the rolling verdict attached to stream events
type SafetyStatus struct {
	Safe  bool    `json:"safe"`
	Score float64 `json:"score"`
}

// StreamEvent is one event on the streaming completion path. Content events
// carry DeltaText plus the latest windowed safety verdict. The terminal
// event carries either Final metadata or an Error; Interruption marks the
// marker chunk emitted when a strict-mode check stops the stream.
type StreamEvent struct {
	DeltaText    string          `json:"delta_text,omitempty"`
	SafetyStatus SafetyStatus    `json:"safety_status"`
	Interruption bool            `json:"interruption,omitempty"`
	Final        *SafetyMetadata `json:"final,omitempty"`
	Error        error           `json:"-"`
}
