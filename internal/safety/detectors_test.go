package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDetectors_Categories(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		violationType ViolationType
		severity      Severity
	}{
		{"harmful", "I will attack the building", ViolationHarmfulContent, SeverityCritical},
		{"self harm", "I want to cut myself", ViolationSelfHarm, SeverityCritical},
		{"hate speech", "they are subhuman", ViolationHateSpeech, SeverityCritical},
		{"illegal", "money laundering schemes", ViolationIllegalContent, SeverityCritical},
		{"bias", "women are always bad drivers", ViolationBias, SeverityHigh},
		{"privacy email", "contact me at jane.doe@example.com", ViolationPrivacy, SeverityHigh},
		{"pii credit card", "card number 4111111111111111", ViolationPIIDetected, SeverityHigh},
		{"misinformation", "vaccines cause autism they say", ViolationMisinformation, SeverityMedium},
		{"manipulation", "nobody will believe you anyway", ViolationManipulation, SeverityMedium},
		{"profanity", "you absolute bastard", ViolationProfanity, SeverityLow},
	}

	detectors := builtinDetectors()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var found *Violation
			for _, d := range detectors {
				if d.ViolationType() != tt.violationType {
					continue
				}
				v, err := d.Detect(tt.text)
				require.NoError(t, err)
				found = v
			}

			require.NotNil(t, found, "expected a %s violation", tt.violationType)
			assert.Equal(t, tt.violationType, found.Type)
			assert.Equal(t, tt.severity, found.Severity)
			assert.Greater(t, found.Confidence, 0.0)
		})
	}
}

func TestDetector_NoMatchReturnsNil(t *testing.T) {
	for _, d := range builtinDetectors() {
		v, err := d.Detect("a perfectly pleasant sentence about gardening")
		require.NoError(t, err)
		assert.Nil(t, v, "detector %s should not match", d.Name())
	}
}

func TestDetector_AtMostOneViolation(t *testing.T) {
	var harmful Detector
	for _, d := range builtinDetectors() {
		if d.ViolationType() == ViolationHarmfulContent {
			harmful = d
		}
	}
	require.NotNil(t, harmful)

	// Multiple markers still yield a single violation with collected evidence.
	v, err := harmful.Detect("kill someone with violence and make a bomb")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, len(v.Evidence) >= 2)
	assert.LessOrEqual(t, len(v.Evidence), maxEvidence)
}
