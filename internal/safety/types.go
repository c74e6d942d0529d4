package safety

import (
	"encoding/json"
	"fmt"
	"time"
)

// ViolationType categorizes a detected safety concern.
type ViolationType string

const (
	ViolationHarmfulContent ViolationType = "harmful_content"
	ViolationBias           ViolationType = "bias"
	ViolationPrivacy        ViolationType = "privacy"
	ViolationPIIDetected    ViolationType = "pii_detected"
	ViolationMisinformation ViolationType = "misinformation"
	ViolationManipulation   ViolationType = "manipulation"
	ViolationIllegalContent ViolationType = "illegal_content"
	ViolationProfanity      ViolationType = "profanity"
	ViolationSelfHarm       ViolationType = "self_harm"
	ViolationHateSpeech     ViolationType = "hate_speech"
	ViolationPolicy         ViolationType = "policy_violation"
)

// String returns the string representation of the ViolationType
func (v ViolationType) String() string {
	return string(v)
}

// IsValid checks if the violation type is a valid value
func (v ViolationType) IsValid() bool {
	switch v {
	case ViolationHarmfulContent, ViolationBias, ViolationPrivacy,
		ViolationPIIDetected, ViolationMisinformation, ViolationManipulation,
		ViolationIllegalContent, ViolationProfanity, ViolationSelfHarm,
		ViolationHateSpeech, ViolationPolicy:
		return true
	default:
		return false
	}
}

// Severity grades how serious a violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of the Severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is a valid value
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns the ordering of severities, higher means more serious.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast returns true if this severity is equal to or more serious than other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Escalate returns the next severity step up; critical stays critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh:
		return SeverityCritical
	default:
		return s
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	sev := Severity(str)
	if !sev.IsValid() {
		return fmt.Errorf("invalid severity: %s", str)
	}

	*s = sev
	return nil
}

// Violation is a single detected safety concern. Violations are immutable once
// created; analyzer and policy violations are concatenated, never deduplicated,
// so duplicates surface as independent signals.
type Violation struct {
	Type         ViolationType `json:"type"`
	Severity     Severity      `json:"severity"`
	Description  string        `json:"description"`
	Evidence     []string      `json:"evidence,omitempty"`
	Confidence   float64       `json:"confidence"`
	PolicySource string        `json:"policy_source,omitempty"`
}

// AnalysisMetadata carries bookkeeping information about a single analysis run.
type AnalysisMetadata struct {
	AnalysisTimeMs       int64     `json:"analysis_time_ms"`
	ModelVersion         string    `json:"model_version"`
	Timestamp            time.Time `json:"timestamp"`
	AppliedPolicyVersion string    `json:"applied_policy_version,omitempty"`
}

// AnalysisResult is the verdict of a single analysis call. It is produced fresh
// on every call and never mutated after construction; the policy engine returns
// an updated copy rather than modifying the base result.
type AnalysisResult struct {
	Safe       bool             `json:"safe"`
	Score      float64          `json:"score"`
	Violations []Violation      `json:"violations"`
	Metadata   AnalysisMetadata `json:"metadata"`
}

// MaxSeverity returns the most serious severity among the violations, or the
// empty string when there are none.
func (r AnalysisResult) MaxSeverity() Severity {
	var max Severity
	for _, v := range r.Violations {
		if v.Severity.Rank() > max.Rank() {
			max = v.Severity
		}
	}
	return max
}

// HasViolationType returns true if any violation has the given type.
func (r AnalysisResult) HasViolationType(t ViolationType) bool {
	for _, v := range r.Violations {
		if v.Type == t {
			return true
		}
	}
	return false
}
