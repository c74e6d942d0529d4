package safety

// SafetyThreshold is the minimum score a text must reach to be considered safe
// in the absence of high or critical violations.
const SafetyThreshold = 0.7

// severityWeights maps severities to their penalty weight when scoring.
var severityWeights = map[Severity]float64{
	SeverityLow:      0.1,
	SeverityMedium:   0.3,
	SeverityHigh:     0.6,
	SeverityCritical: 1.0,
}

// SeverityWeight returns the scoring weight for a severity. Unknown severities
// weigh 0.5 so malformed data still registers as a meaningful penalty.
func SeverityWeight(s Severity) float64 {
	if w, ok := severityWeights[s]; ok {
		return w
	}
	return 0.5
}

// ScoreViolations computes the safety score for a set of violations as
// 1 - min(1, sum(weight * confidence)). The penalty is capped so the score
// never goes negative; an empty set scores 1.0.
func ScoreViolations(violations []Violation) float64 {
	if len(violations) == 0 {
		return 1.0
	}

	var penalty float64
	for _, v := range violations {
		penalty += SeverityWeight(v.Severity) * v.Confidence
	}
	if penalty > 1.0 {
		penalty = 1.0
	}

	return 1.0 - penalty
}

// IsSafe reports whether a score and violation set together constitute a safe
// verdict: no violation of high or critical severity, and score at or above
// the safety threshold.
func IsSafe(score float64, violations []Violation) bool {
	for _, v := range violations {
		if v.Severity.AtLeast(SeverityHigh) {
			return false
		}
	}
	return score >= SafetyThreshold
}
