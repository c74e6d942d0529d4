package policy

import (
	"github.com/openvault/openvault/internal/safety"
)

// ConditionType identifies how a rule condition is evaluated.
type ConditionType string

const (
	ConditionRegex              ConditionType = "regex"
	ConditionKeywordList        ConditionType = "keyword_list"
	ConditionSemanticSimilarity ConditionType = "semantic_similarity"
	ConditionModelThreshold     ConditionType = "model_threshold"
	ConditionScript             ConditionType = "script"
)

// String returns the string representation of the ConditionType
func (c ConditionType) String() string {
	return string(c)
}

// IsValid checks if the condition type is a valid value
func (c ConditionType) IsValid() bool {
	switch c {
	case ConditionRegex, ConditionKeywordList, ConditionSemanticSimilarity,
		ConditionModelThreshold, ConditionScript:
		return true
	default:
		return false
	}
}

// RuleAction is what a rule asks the system to do when its condition triggers.
// Block forces the verdict to unsafe; escalate steps up the severity of
// violations matching the rule's violation type; the remaining actions
// annotate the result for downstream consumers.
type RuleAction string

const (
	ActionBlock    RuleAction = "block"
	ActionFlag     RuleAction = "flag"
	ActionRedact   RuleAction = "redact"
	ActionRevise   RuleAction = "revise"
	ActionEscalate RuleAction = "escalate"
	ActionLogOnly  RuleAction = "log_only"
)

// RuleCondition describes the trigger for a policy rule. Parameters are
// condition-type specific: "pattern" for regex, "keywords" for keyword_list,
// backend-defined for the pluggable types.
type RuleCondition struct {
	Type       ConditionType  `json:"type" yaml:"type"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

// PolicyRule is a single user-defined rule within a safety policy.
type PolicyRule struct {
	ID            string               `json:"id" yaml:"id"`
	Description   string               `json:"description" yaml:"description"`
	Condition     RuleCondition        `json:"condition" yaml:"condition"`
	Action        RuleAction           `json:"action" yaml:"action"`
	Severity      safety.Severity      `json:"severity" yaml:"severity"`
	ViolationType safety.ViolationType `json:"violation_type" yaml:"violation_type"`
}

// SafetyPolicy is an organization-defined, versioned, ordered set of rules
// that augments or overrides the analyzer's verdict. Rules apply in
// declaration order.
type SafetyPolicy struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Version  int          `json:"version" yaml:"version"`
	IsActive bool         `json:"is_active" yaml:"is_active"`
	Rules    []PolicyRule `json:"rules" yaml:"rules"`
}
