package constitutional

import "sort"

// Priority orders principles within a revision pass. High-priority
// principles are critiqued and revised first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a numeric rank for ordering, lower ranks first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// CritiqueSeverity grades how serious a critique finding is
type CritiqueSeverity string

const (
	CritiqueSeverityHigh   CritiqueSeverity = "high"
	CritiqueSeverityMedium CritiqueSeverity = "medium"
	CritiqueSeverityLow    CritiqueSeverity = "low"
)

// Weight maps a critique severity to a scalar for callers that aggregate
// critique results numerically.
func (s CritiqueSeverity) Weight() int {
	switch s {
	case CritiqueSeverityHigh:
		return 8
	case CritiqueSeverityMedium:
		return 5
	case CritiqueSeverityLow:
		return 2
	default:
		return 0
	}
}

// Principle is a named guideline used to critique and revise text. The
// templates carry `{text}`, `{principle}`, `{description}` and
// `{explanation}` placeholders filled in at critique/revision time.
type Principle struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	CritiqueTemplate string   `json:"critique_template"`
	ReviseTemplate   string   `json:"revise_template"`
	Priority         Priority `json:"priority"`
}

// Critique is the outcome of evaluating one principle against a text during
// one revision pass. A critique is recorded whether or not it found a
// violation.
type Critique struct {
	Principle    string           `json:"principle"`
	HasViolation bool             `json:"has_violation"`
	Explanation  string           `json:"explanation"`
	Severity     CritiqueSeverity `json:"severity,omitempty"`
	Suggestions  []string         `json:"suggestions,omitempty"`
}

// RevisionResult summarizes a full critique/revision run over a text.
type RevisionResult struct {
	Original            string     `json:"original"`
	Revised             string     `json:"revised"`
	Critiques           []Critique `json:"critiques"`
	RevisionCount       int        `json:"revision_count"`
	PrinciplesApplied   []string   `json:"principles_applied"`
	AppliedSuccessfully bool       `json:"applied_successfully"`

	// Converged reports whether a full pass over the selected principles
	// found no violations before the revision cap was reached.
	Converged bool `json:"converged"`
}

const (
	critiqueHarmlessness = `Evaluate the following text against the principle "{principle}": {description}

Text:
{text}

If the text violates the principle, respond with a line "SEVERITY: high|medium|low" followed by a short explanation. If it does not, respond with exactly "NO_VIOLATION".`

	reviseGeneric = `The following text was critiqued against the principle "{principle}" ({description}):

{explanation}

Rewrite the text to resolve the critique while preserving as much of the original meaning and helpful content as possible. Respond with only the rewritten text.

Text:
{text}`
)

// DefaultPrinciples returns the built-in principle set used when a caller
// supplies none.
func DefaultPrinciples() []Principle {
	return []Principle{
		{
			ID:               "harmlessness",
			Name:             "Harmlessness",
			Description:      "content must not promote violence, hatred, self-harm, or illegal activity",
			CritiqueTemplate: critiqueHarmlessness,
			ReviseTemplate:   reviseGeneric,
			Priority:         PriorityHigh,
		},
		{
			ID:               "privacy",
			Name:             "Privacy",
			Description:      "content must not expose personal data such as emails, phone numbers, or government identifiers",
			CritiqueTemplate: critiqueHarmlessness,
			ReviseTemplate:   reviseGeneric,
			Priority:         PriorityHigh,
		},
		{
			ID:               "truthfulness",
			Name:             "Truthfulness",
			Description:      "content must not present misinformation or unfounded absolute claims as fact",
			CritiqueTemplate: critiqueHarmlessness,
			ReviseTemplate:   reviseGeneric,
			Priority:         PriorityMedium,
		},
		{
			ID:               "respectfulness",
			Name:             "Respectfulness",
			Description:      "content must not contain profanity, insults, or demeaning generalizations",
			CritiqueTemplate: critiqueHarmlessness,
			ReviseTemplate:   reviseGeneric,
			Priority:         PriorityLow,
		},
	}
}

// selectPrinciples filters registry to the given ids, keeping registry order.
// Unknown ids are ignored. With no ids, the full registry is returned.
func selectPrinciples(registry []Principle, ids []string) []Principle {
	if len(ids) == 0 {
		selected := make([]Principle, len(registry))
		copy(selected, registry)
		return selected
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	selected := make([]Principle, 0, len(ids))
	for _, p := range registry {
		if wanted[p.ID] {
			selected = append(selected, p)
		}
	}
	return selected
}

// sortByPriority orders principles high before medium before low, keeping
// the incoming order within each priority.
func sortByPriority(principles []Principle) {
	sort.SliceStable(principles, func(i, j int) bool {
		return principles[i].Priority.Rank() < principles[j].Priority.Rank()
	})
}
