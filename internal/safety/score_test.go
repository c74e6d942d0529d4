package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreViolations_Empty(t *testing.T) {
	assert.Equal(t, 1.0, ScoreViolations(nil))
	assert.Equal(t, 1.0, ScoreViolations([]Violation{}))
}

func TestScoreViolations_Weighting(t *testing.T) {
	tests := []struct {
		name       string
		violations []Violation
		expected   float64
	}{
		{
			name: "single low",
			violations: []Violation{
				{Severity: SeverityLow, Confidence: 1.0},
			},
			expected: 0.9,
		},
		{
			name: "single medium",
			violations: []Violation{
				{Severity: SeverityMedium, Confidence: 1.0},
			},
			expected: 0.7,
		},
		{
			name: "single critical scaled by confidence",
			violations: []Violation{
				{Severity: SeverityCritical, Confidence: 0.95},
			},
			expected: 0.05,
		},
		{
			name: "penalty capped at 1",
			violations: []Violation{
				{Severity: SeverityCritical, Confidence: 1.0},
				{Severity: SeverityCritical, Confidence: 1.0},
				{Severity: SeverityHigh, Confidence: 1.0},
			},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreViolations(tt.violations), 1e-9)
		})
	}
}

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		violations []Violation
		expected   bool
	}{
		{
			name:     "clean text",
			score:    1.0,
			expected: true,
		},
		{
			name:  "low severity above threshold",
			score: 0.9,
			violations: []Violation{
				{Severity: SeverityLow, Confidence: 1.0},
			},
			expected: true,
		},
		{
			name:  "high severity forces unsafe even above threshold",
			score: 0.95,
			violations: []Violation{
				{Severity: SeverityHigh, Confidence: 0.08},
			},
			expected: false,
		},
		{
			name:  "critical severity forces unsafe",
			score: 0.9,
			violations: []Violation{
				{Severity: SeverityCritical, Confidence: 0.1},
			},
			expected: false,
		},
		{
			name:  "score below threshold unsafe without high severity",
			score: 0.4,
			violations: []Violation{
				{Severity: SeverityMedium, Confidence: 1.0},
				{Severity: SeverityMedium, Confidence: 1.0},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSafe(tt.score, tt.violations))
		})
	}
}

func TestSeverityWeight_Unknown(t *testing.T) {
	assert.Equal(t, 0.5, SeverityWeight(Severity("bogus")))
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.True(t, SeverityCritical.Rank() > SeverityHigh.Rank())
	assert.True(t, SeverityHigh.Rank() > SeverityMedium.Rank())
	assert.True(t, SeverityMedium.Rank() > SeverityLow.Rank())
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
}
