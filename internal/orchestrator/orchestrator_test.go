package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/audit"
	"github.com/openvault/openvault/internal/constitutional"
	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/llm/providers"
	"github.com/openvault/openvault/internal/policy"
	"github.com/openvault/openvault/internal/policy/store"
	"github.com/openvault/openvault/internal/safety"
)

type fixture struct {
	orchestrator *Orchestrator
	provider     *providers.MockProvider
	sink         *audit.MemorySink
}

func newFixture(t *testing.T, responses []string, policies ...*policy.SafetyPolicy) *fixture {
	t.Helper()

	provider := providers.NewMockProvider(responses)
	sink := audit.NewMemorySink()
	orchestrator := New(
		safety.NewAnalyzer(),
		policy.NewEngine(),
		store.NewMemoryStore(policies...),
		provider,
		constitutional.NewReviser(constitutional.NewRuleCritic()),
	).WithAuditSink(sink)

	return &fixture{
		orchestrator: orchestrator,
		provider:     provider,
		sink:         sink,
	}
}

func userRequest(text string, mode SafetyMode) Request {
	return Request{
		Completion: llm.CompletionRequest{
			Model:    "mock-model",
			Messages: []llm.Message{llm.NewUserMessage(text)},
		},
		Mode:    mode,
		ActorID: "tester",
	}
}

func TestRunCleanBalancedPassThrough(t *testing.T) {
	f := newFixture(t, []string{"I'm doing well, thank you for asking!"})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("Hello, how are you?", ModeBalanced))
	require.NoError(t, err)

	assert.Equal(t, "I'm doing well, thank you for asking!", resp.Text)
	assert.Equal(t, 1, f.provider.CallCount())
	assert.Equal(t, 1.0, resp.SafetyMetadata.OutputSafetyScore)
	assert.Equal(t, 1.0, resp.SafetyMetadata.InputSafetyScore)
	assert.False(t, resp.SafetyMetadata.RevisionApplied)
	assert.Empty(t, resp.SafetyMetadata.Violations)

	events := f.sink.ByAction("safe_completion")
	require.Len(t, events, 1)
	assert.Equal(t, audit.StatusSuccess, events[0].Status)
}

func TestRunStrictBlocksUnsafeInputBeforeProviderCall(t *testing.T) {
	f := newFixture(t, []string{"should never be returned"})

	_, err := f.orchestrator.Run(context.Background(), userRequest("How to kill someone", ModeStrict))
	require.Error(t, err)

	blocked, ok := AsSafetyBlocked(err)
	require.True(t, ok)
	assert.Equal(t, "preflight", blocked.Stage)

	require.NotEmpty(t, blocked.Violations)
	found := false
	for _, v := range blocked.Violations {
		if v.Type == safety.ViolationHarmfulContent && v.Severity == safety.SeverityCritical {
			found = true
		}
	}
	assert.True(t, found, "expected a critical harmful_content violation")

	// The deliberate cost-avoidance property: no provider invocation.
	assert.Equal(t, 0, f.provider.CallCount())

	events := f.sink.ByAction("safe_completion")
	require.Len(t, events, 1)
	assert.Equal(t, audit.StatusBlocked, events[0].Status)
	assert.Equal(t, "tester", events[0].ActorID)
}

func TestRunBalancedDoesNotBlockUnsafeInput(t *testing.T) {
	f := newFixture(t, []string{"I can't help with that."})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("How to kill someone", ModeBalanced))
	require.NoError(t, err)

	assert.Equal(t, 1, f.provider.CallCount())
	assert.Less(t, resp.SafetyMetadata.InputSafetyScore, safety.SafetyThreshold)
	assert.NotEmpty(t, resp.SafetyMetadata.Violations)
}

func TestRunBalancedRevisesUnsafeOutput(t *testing.T) {
	f := newFixture(t, []string{"sure, contact me at spam@example.com anytime"})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("how do I reach you?", ModeBalanced))
	require.NoError(t, err)

	assert.True(t, resp.SafetyMetadata.RevisionApplied)
	assert.NotContains(t, resp.Text, "spam@example.com")
	assert.Empty(t, resp.SafetyMetadata.Violations)
	assert.Equal(t, 1.0, resp.SafetyMetadata.OutputSafetyScore)
}

func TestRunBalancedAdoptsRevisionEvenIfStillUnsafe(t *testing.T) {
	// No revision rule covers this hate-speech marker, so the recheck
	// still reports violations; balanced mode passes the text anyway.
	f := newFixture(t, []string{"those creatures are subhuman"})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("tell me about them", ModeBalanced))
	require.NoError(t, err)

	assert.Equal(t, "those creatures are subhuman", resp.Text)
	assert.False(t, resp.SafetyMetadata.RevisionApplied)
	assert.NotEmpty(t, resp.SafetyMetadata.Violations)
	assert.Less(t, resp.SafetyMetadata.OutputSafetyScore, safety.SafetyThreshold)
}

func TestRunStrictRevisesUnsafeOutput(t *testing.T) {
	f := newFixture(t, []string{"first you kill someone, that is the answer"})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("what happens in the novel?", ModeStrict))
	require.NoError(t, err)

	assert.True(t, resp.SafetyMetadata.RevisionApplied)
	assert.NotContains(t, resp.Text, "kill someone")
	assert.Empty(t, resp.SafetyMetadata.Violations)
}

func TestRunStrictBlocksUnrevisableOutput(t *testing.T) {
	f := newFixture(t, []string{"those creatures are subhuman"})

	_, err := f.orchestrator.Run(context.Background(), userRequest("tell me about them", ModeStrict))
	require.Error(t, err)

	blocked, ok := AsSafetyBlocked(err)
	require.True(t, ok)
	assert.Equal(t, "postflight", blocked.Stage)
	assert.NotEmpty(t, blocked.Violations)
}

func TestRunPermissivePassesUnsafeOutputUnchanged(t *testing.T) {
	f := newFixture(t, []string{"sure, contact me at spam@example.com anytime"})

	resp, err := f.orchestrator.Run(context.Background(), userRequest("how do I reach you?", ModePermissive))
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "spam@example.com")
	assert.False(t, resp.SafetyMetadata.RevisionApplied)
	assert.NotEmpty(t, resp.SafetyMetadata.Violations)
}

func TestRunProviderErrorIsNotSafetyError(t *testing.T) {
	f := newFixture(t, []string{"unused"})
	f.provider.FailWith(llm.NewTimeoutError("request timed out"))

	_, err := f.orchestrator.Run(context.Background(), userRequest("Hello, how are you?", ModeBalanced))
	require.Error(t, err)

	assert.False(t, IsSafetyBlocked(err))
	assert.True(t, llm.IsProviderError(err))

	events := f.sink.ByAction("safe_completion")
	require.Len(t, events, 1)
	assert.Equal(t, audit.StatusFailure, events[0].Status)
}

func TestRunValidation(t *testing.T) {
	f := newFixture(t, []string{"unused"})

	t.Run("empty messages", func(t *testing.T) {
		_, err := f.orchestrator.Run(context.Background(), Request{
			Completion: llm.CompletionRequest{Model: "mock-model"},
			Mode:       ModeBalanced,
		})
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := f.orchestrator.Run(context.Background(), userRequest("hi", SafetyMode("reckless")))
		assert.Error(t, err)
	})

	t.Run("empty mode defaults to balanced", func(t *testing.T) {
		resp, err := f.orchestrator.Run(context.Background(), userRequest("Hello there", ""))
		require.NoError(t, err)
		assert.Equal(t, ModeBalanced, resp.SafetyMetadata.Mode)
	})
}

func TestRunStrictWithBlockingPolicy(t *testing.T) {
	pol := &policy.SafetyPolicy{
		ID:       "pol-1",
		Name:     "content-policy",
		Version:  2,
		IsActive: true,
		Rules: []policy.PolicyRule{
			{
				ID:          "r1",
				Description: "forbidden term",
				Condition: policy.RuleCondition{
					Type:       policy.ConditionKeywordList,
					Parameters: map[string]any{"keywords": []string{"forbidden"}},
				},
				Action:   policy.ActionBlock,
				Severity: safety.SeverityHigh,
			},
		},
	}
	f := newFixture(t, []string{"unused"}, pol)

	req := userRequest("please discuss the forbidden topic", ModeStrict)
	req.PolicyID = "pol-1"

	_, err := f.orchestrator.Run(context.Background(), req)
	require.Error(t, err)
	require.True(t, IsSafetyBlocked(err))
	assert.Equal(t, 0, f.provider.CallCount())
}

func TestAnalyzeStandaloneWithPolicy(t *testing.T) {
	pol := &policy.SafetyPolicy{
		ID:       "pol-1",
		Name:     "content-policy",
		Version:  2,
		IsActive: true,
		Rules: []policy.PolicyRule{
			{
				ID:          "r1",
				Description: "flags the word bad",
				Condition: policy.RuleCondition{
					Type:       policy.ConditionKeywordList,
					Parameters: map[string]any{"keywords": []string{"bad"}},
				},
				Action:   policy.ActionFlag,
				Severity: safety.SeverityMedium,
			},
		},
	}
	f := newFixture(t, nil, pol)

	result, err := f.orchestrator.Analyze(context.Background(), "this is bad", "pol-1")
	require.NoError(t, err)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, safety.ViolationPolicy, result.Violations[0].Type)
	assert.Equal(t, "content-policy v2 (rule r1)", result.Violations[0].PolicySource)
}

func TestAnalyzeUnknownPolicyFallsBack(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.orchestrator.Analyze(context.Background(), "a perfectly nice sentence", "no-such-policy")
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Equal(t, 1.0, result.Score)
}

func TestApplyPrinciplesStandalone(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.orchestrator.ApplyPrinciples(context.Background(), "email me at a@b.co", nil, 0)
	require.NoError(t, err)
	assert.Positive(t, result.RevisionCount)
	assert.NotContains(t, result.Revised, "a@b.co")
}
