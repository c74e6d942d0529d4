package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/safety"
)

func collect(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var all []StreamEvent
	for event := range events {
		all = append(all, event)
	}
	return all
}

func TestRunStreamCleanCompletes(t *testing.T) {
	f := newFixture(t, []string{"The sky appears blue because of Rayleigh scattering."})

	events, err := f.orchestrator.RunStream(context.Background(), userRequest("why is the sky blue?", ModeBalanced))
	require.NoError(t, err)

	all := collect(t, events)
	require.NotEmpty(t, all)

	terminal := all[len(all)-1]
	require.NotNil(t, terminal.Final)
	assert.Equal(t, 1.0, terminal.Final.OutputSafetyScore)
	assert.Empty(t, terminal.Final.Violations)

	var text strings.Builder
	for _, event := range all[:len(all)-1] {
		require.NoError(t, event.Error)
		assert.True(t, event.SafetyStatus.Safe)
		text.WriteString(event.DeltaText)
	}
	assert.Equal(t, "The sky appears blue because of Rayleigh scattering.", text.String())
}

func TestRunStreamStrictBlocksUnsafeInputBeforeProviderCall(t *testing.T) {
	f := newFixture(t, []string{"never streamed"})

	_, err := f.orchestrator.RunStream(context.Background(), userRequest("How to kill someone", ModeStrict))
	require.Error(t, err)
	assert.True(t, IsSafetyBlocked(err))
	assert.Equal(t, 0, f.provider.CallCount())
}

// unsafeMidStreamResponse keeps the first analysis window clean and puts a
// critical marker inside the second window. Chunk size (5) divides the
// window size (100), so windows align with chunk boundaries.
func unsafeMidStreamResponse() string {
	return strings.Repeat("a", 100) + " you should kill someone now " + strings.Repeat("b", 100)
}

func TestRunStreamStrictInterruptsMidStream(t *testing.T) {
	f := newFixture(t, []string{unsafeMidStreamResponse()})

	events, err := f.orchestrator.RunStream(context.Background(), userRequest("hello there", ModeStrict))
	require.NoError(t, err)

	all := collect(t, events)
	require.NotEmpty(t, all)

	markerIdx := -1
	for i, event := range all {
		if event.Interruption {
			markerIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, markerIdx, 0, "expected an interruption marker event")

	marker := all[markerIdx]
	assert.Equal(t, InterruptionMarker, marker.DeltaText)
	assert.False(t, marker.SafetyStatus.Safe)

	// After the marker: exactly one terminal error event, no generated
	// content.
	tail := all[markerIdx+1:]
	require.Len(t, tail, 1)
	assert.Empty(t, tail[0].DeltaText)
	require.Error(t, tail[0].Error)

	blocked, ok := AsSafetyBlocked(tail[0].Error)
	require.True(t, ok)
	assert.Equal(t, "stream", blocked.Stage)
	assert.NotEmpty(t, blocked.Violations)
}

func TestRunStreamBalancedRunsToCompletionDespiteUnsafeWindows(t *testing.T) {
	response := unsafeMidStreamResponse()
	f := newFixture(t, []string{response})

	events, err := f.orchestrator.RunStream(context.Background(), userRequest("hello there", ModeBalanced))
	require.NoError(t, err)

	all := collect(t, events)
	require.NotEmpty(t, all)

	terminal := all[len(all)-1]
	require.NoError(t, terminal.Error)
	require.NotNil(t, terminal.Final)

	// The final full-text check carries the unsafe verdict in metadata.
	assert.Less(t, terminal.Final.OutputSafetyScore, safety.SafetyThreshold)
	assert.NotEmpty(t, terminal.Final.Violations)

	var text strings.Builder
	for _, event := range all[:len(all)-1] {
		assert.False(t, event.Interruption)
		text.WriteString(event.DeltaText)
	}
	assert.Equal(t, response, text.String())
}

func TestRunStreamCarriesWindowedVerdicts(t *testing.T) {
	f := newFixture(t, []string{unsafeMidStreamResponse()})

	events, err := f.orchestrator.RunStream(context.Background(), userRequest("hello there", ModePermissive))
	require.NoError(t, err)

	all := collect(t, events)

	sawUnsafeVerdict := false
	for _, event := range all {
		if event.DeltaText != "" && !event.SafetyStatus.Safe {
			sawUnsafeVerdict = true
		}
	}
	assert.True(t, sawUnsafeVerdict, "expected at least one content event with an unsafe windowed verdict")
}

func TestRunStreamAuditOnBlock(t *testing.T) {
	f := newFixture(t, []string{unsafeMidStreamResponse()})

	events, err := f.orchestrator.RunStream(context.Background(), userRequest("hello there", ModeStrict))
	require.NoError(t, err)
	collect(t, events)

	var sawBlocked bool
	for _, event := range f.sink.ByAction("safe_completion") {
		if event.Status == "blocked" {
			sawBlocked = true
		}
	}
	assert.True(t, sawBlocked)
}
