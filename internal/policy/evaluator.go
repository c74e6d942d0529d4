package policy

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Match is the outcome of evaluating a rule condition against text.
type Match struct {
	Triggered bool
	Evidence  string
}

// ConditionEvaluator decides whether a rule condition matches a text.
// semantic_similarity, model_threshold, and script conditions have no built-in
// backend; they are served by NotConfigured evaluators until a backend is
// plugged in via Engine.WithEvaluator.
type ConditionEvaluator interface {
	// Type returns the condition type this evaluator serves
	Type() ConditionType

	// Configured reports whether a real backend is wired. NotConfigured
	// evaluators return false and never trigger.
	Configured() bool

	// Evaluate tests the condition against the full text. A returned error
	// marks the rule malformed; the engine skips it as non-triggering.
	Evaluate(ctx context.Context, text string, params map[string]any) (Match, error)
}

// regexEvaluator matches a "pattern" parameter against the full text.
type regexEvaluator struct{}

func (e *regexEvaluator) Type() ConditionType { return ConditionRegex }
func (e *regexEvaluator) Configured() bool    { return true }

func (e *regexEvaluator) Evaluate(ctx context.Context, text string, params map[string]any) (Match, error) {
	raw, ok := params["pattern"]
	if !ok {
		return Match{}, fmt.Errorf("regex condition missing required parameter %q", "pattern")
	}
	pattern, ok := raw.(string)
	if !ok || pattern == "" {
		return Match{}, fmt.Errorf("regex condition parameter %q must be a non-empty string", "pattern")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Match{}, fmt.Errorf("regex condition has invalid pattern: %w", err)
	}

	found := re.FindString(text)
	if found == "" {
		return Match{}, nil
	}
	return Match{Triggered: true, Evidence: found}, nil
}

// keywordEvaluator performs a case-insensitive substring test against a
// "keywords" parameter list.
type keywordEvaluator struct{}

func (e *keywordEvaluator) Type() ConditionType { return ConditionKeywordList }
func (e *keywordEvaluator) Configured() bool    { return true }

func (e *keywordEvaluator) Evaluate(ctx context.Context, text string, params map[string]any) (Match, error) {
	keywords, err := keywordList(params)
	if err != nil {
		return Match{}, err
	}

	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return Match{Triggered: true, Evidence: keyword}, nil
		}
	}
	return Match{}, nil
}

// keywordList extracts the "keywords" parameter, accepting both []string and
// the []any that JSON/YAML decoding produces.
func keywordList(params map[string]any) ([]string, error) {
	raw, ok := params["keywords"]
	if !ok {
		return nil, fmt.Errorf("keyword_list condition missing required parameter %q", "keywords")
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		keywords := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("keyword_list condition keywords must be strings, got %T", item)
			}
			keywords = append(keywords, s)
		}
		return keywords, nil
	default:
		return nil, fmt.Errorf("keyword_list condition parameter %q must be a list, got %T", "keywords", raw)
	}
}

// notConfiguredEvaluator is the explicit "no backend wired" variant for
// pluggable condition types. It never triggers.
type notConfiguredEvaluator struct {
	conditionType ConditionType
}

// NewNotConfigured creates an evaluator that serves a pluggable condition
// type without a backend. It reports Configured() == false so callers can
// detect misconfiguration, and always evaluates to non-triggering.
func NewNotConfigured(conditionType ConditionType) ConditionEvaluator {
	return &notConfiguredEvaluator{conditionType: conditionType}
}

func (e *notConfiguredEvaluator) Type() ConditionType { return e.conditionType }
func (e *notConfiguredEvaluator) Configured() bool    { return false }

func (e *notConfiguredEvaluator) Evaluate(ctx context.Context, text string, params map[string]any) (Match, error) {
	return Match{}, nil
}
