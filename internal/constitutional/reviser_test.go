package constitutional

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCritic lets tests control critique verdicts per principle and
// observe the order principles were evaluated in.
type scriptedCritic struct {
	violations  map[string]bool
	critiqueErr map[string]error
	reviseFn    func(text string, principle Principle) string
	seen        []string
}

func (c *scriptedCritic) Critique(ctx context.Context, text string, principle Principle) (Critique, error) {
	c.seen = append(c.seen, principle.ID)
	if err := c.critiqueErr[principle.ID]; err != nil {
		return Critique{}, err
	}
	if c.violations[principle.ID] {
		return Critique{
			Principle:    principle.Name,
			HasViolation: true,
			Explanation:  "scripted violation",
			Severity:     CritiqueSeverityMedium,
		}, nil
	}
	return Critique{Principle: principle.Name}, nil
}

func (c *scriptedCritic) Revise(ctx context.Context, text string, principle Principle, explanation string) (string, error) {
	if c.reviseFn != nil {
		return c.reviseFn(text, principle), nil
	}
	return text, nil
}

func TestApplyPrinciplesCleanTextConverges(t *testing.T) {
	reviser := NewReviser(NewRuleCritic())

	result, err := reviser.ApplyPrinciples(context.Background(), "a perfectly pleasant sentence", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, "a perfectly pleasant sentence", result.Revised)
	assert.Equal(t, 0, result.RevisionCount)
	assert.True(t, result.Converged)
	assert.True(t, result.AppliedSuccessfully)
	// One recorded critique per default principle, single pass.
	assert.Len(t, result.Critiques, len(DefaultPrinciples()))
	assert.Len(t, result.PrinciplesApplied, len(DefaultPrinciples()))
}

func TestApplyPrinciplesRevisesAndConverges(t *testing.T) {
	reviser := NewReviser(NewRuleCritic())
	text := "you idiot, email me at bob@example.com"

	result, err := reviser.ApplyPrinciples(context.Background(), text, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, text, result.Original)
	assert.NotEqual(t, text, result.Revised)
	assert.NotContains(t, result.Revised, "bob@example.com")
	assert.NotContains(t, result.Revised, "idiot")
	assert.GreaterOrEqual(t, result.RevisionCount, 2)
	assert.True(t, result.Converged)
	assert.True(t, result.AppliedSuccessfully)
}

func TestApplyPrinciplesIdempotent(t *testing.T) {
	reviser := NewReviser(NewRuleCritic())

	first, err := reviser.ApplyPrinciples(context.Background(), "contact 555-123-4567 you moron", nil, 0)
	require.NoError(t, err)
	require.Positive(t, first.RevisionCount)

	second, err := reviser.ApplyPrinciples(context.Background(), first.Revised, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RevisionCount)
	assert.Equal(t, first.Revised, second.Revised)
	assert.True(t, second.Converged)
}

func TestApplyPrinciplesRevisionCap(t *testing.T) {
	// The critic always finds a violation and always mutates, so the loop
	// can only stop at the cap.
	critic := &scriptedCritic{
		violations: map[string]bool{"harmlessness": true},
		reviseFn: func(text string, principle Principle) string {
			return text + "."
		},
	}
	reviser := NewReviser(critic)

	maxRevisions := 3
	result, err := reviser.ApplyPrinciples(context.Background(), "stubborn text", []string{"harmlessness"}, maxRevisions)
	require.NoError(t, err)

	assert.Equal(t, maxRevisions*1, result.RevisionCount)
	assert.False(t, result.Converged)
	assert.True(t, result.AppliedSuccessfully)
}

func TestApplyPrinciplesCountsMutationsNotPasses(t *testing.T) {
	// Violation is flagged but the revision never changes the text, so the
	// revision count stays zero while the loop runs to the cap.
	critic := &scriptedCritic{
		violations: map[string]bool{"privacy": true},
	}
	reviser := NewReviser(critic)

	result, err := reviser.ApplyPrinciples(context.Background(), "text", []string{"privacy"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RevisionCount)
	assert.False(t, result.Converged)
}

func TestApplyPrinciplesPriorityOrder(t *testing.T) {
	critic := &scriptedCritic{}
	reviser := NewReviser(critic).WithPrinciples([]Principle{
		{ID: "later", Name: "Later", Priority: PriorityLow},
		{ID: "middle", Name: "Middle", Priority: PriorityMedium},
		{ID: "first", Name: "First", Priority: PriorityHigh},
	})

	_, err := reviser.ApplyPrinciples(context.Background(), "text", nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "middle", "later"}, critic.seen)
}

func TestApplyPrinciplesSelection(t *testing.T) {
	critic := &scriptedCritic{}
	reviser := NewReviser(critic)

	result, err := reviser.ApplyPrinciples(context.Background(), "text", []string{"privacy", "no-such-id"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"privacy"}, critic.seen)
	assert.Equal(t, []string{"Privacy"}, result.PrinciplesApplied)
}

func TestApplyPrinciplesNoMatchingPrinciples(t *testing.T) {
	critic := &scriptedCritic{}
	reviser := NewReviser(critic)

	result, err := reviser.ApplyPrinciples(context.Background(), "text", []string{"no-such-id"}, 0)
	require.NoError(t, err)

	assert.Empty(t, critic.seen)
	assert.True(t, result.Converged)
	assert.True(t, result.AppliedSuccessfully)
	assert.Equal(t, "text", result.Revised)
}

func TestApplyPrinciplesCriticFailureRecovered(t *testing.T) {
	critic := &scriptedCritic{
		violations:  map[string]bool{"respectfulness": true},
		critiqueErr: map[string]error{"harmlessness": errors.New("model unavailable")},
		reviseFn: func(text string, principle Principle) string {
			return "revised"
		},
	}
	reviser := NewReviser(critic)

	result, err := reviser.ApplyPrinciples(context.Background(), "text", nil, 0)
	require.NoError(t, err)

	// The failing principle is skipped, the rest still run and revise.
	assert.False(t, result.AppliedSuccessfully)
	assert.Equal(t, "revised", result.Revised)
	assert.Positive(t, result.RevisionCount)
}

func TestApplyPrinciplesEmptyText(t *testing.T) {
	reviser := NewReviser(NewRuleCritic())

	_, err := reviser.ApplyPrinciples(context.Background(), "", nil, 0)
	assert.Error(t, err)
}

func TestApplyPrinciplesRevisionCountBound(t *testing.T) {
	critic := &scriptedCritic{
		violations: map[string]bool{
			"harmlessness":   true,
			"privacy":        true,
			"truthfulness":   true,
			"respectfulness": true,
		},
		reviseFn: func(text string, principle Principle) string {
			return text + "."
		},
	}
	reviser := NewReviser(critic)

	maxRevisions := 2
	result, err := reviser.ApplyPrinciples(context.Background(), "text", nil, maxRevisions)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.RevisionCount, maxRevisions*len(DefaultPrinciples()))
}
