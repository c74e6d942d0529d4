package safety

import "regexp"

// maxEvidence caps how many matched substrings a single detector reports.
const maxEvidence = 3

// Detector scans text for a single category of violation. A detector
// contributes zero or one Violation per analysis.
type Detector interface {
	// Name returns the detector name for logging and tracing
	Name() string

	// ViolationType returns the category this detector covers
	ViolationType() ViolationType

	// Detect returns a violation if the text matches this category, or nil.
	// A returned error means the detector failed; the analyzer treats that
	// as "no violation" and continues.
	Detect(text string) (*Violation, error)
}

// patternDetector implements Detector with a set of pre-compiled regex markers.
type patternDetector struct {
	name           string
	violationType  ViolationType
	severity       Severity
	confidence     float64
	description    string
	patterns       []*regexp.Regexp
	redactEvidence bool
}

func (d *patternDetector) Name() string {
	return d.name
}

func (d *patternDetector) ViolationType() ViolationType {
	return d.violationType
}

func (d *patternDetector) Detect(text string) (*Violation, error) {
	var evidence []string
	for _, pattern := range d.patterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		if len(evidence) < maxEvidence {
			if d.redactEvidence {
				evidence = append(evidence, "[REDACTED]")
			} else {
				evidence = append(evidence, match)
			}
		}
	}

	if len(evidence) == 0 {
		return nil, nil
	}

	return &Violation{
		Type:        d.violationType,
		Severity:    d.severity,
		Description: d.description,
		Evidence:    evidence,
		Confidence:  d.confidence,
	}, nil
}

// compileAll compiles a list of regex sources. Patterns are fixed at build
// time, so compilation failures are programmer errors.
func compileAll(sources []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		patterns = append(patterns, regexp.MustCompile(src))
	}
	return patterns
}

// builtinDetectors returns the fixed detector set, one per violation category.
// policy_violation has no detector; it is produced only by the policy engine.
func builtinDetectors() []Detector {
	return []Detector{
		&patternDetector{
			name:          "harmful-content",
			violationType: ViolationHarmfulContent,
			severity:      SeverityCritical,
			confidence:    0.95,
			description:   "Text contains potentially harmful content",
			patterns: compileAll([]string{
				`(?i)\b(kill|murder|assassinate|eliminate)\s+(someone|people|a?\s*person)\b`,
				`(?i)\b(how\s+to\s+)?(make|create|build)\s+(a\s+)?(bomb|weapon|explosive)\b`,
				`(?i)\b(harm|hurt|damage|destroy)\s+(yourself|others|someone)\b`,
				`(?i)\b(violence|violent|attack|assault)\b`,
			}),
		},
		&patternDetector{
			name:          "self-harm",
			violationType: ViolationSelfHarm,
			severity:      SeverityCritical,
			confidence:    0.9,
			description:   "Text contains references to self-harm",
			patterns: compileAll([]string{
				`(?i)\b(suicide|self\s*harm|cut\s+myself)\b`,
				`(?i)\b(end|take)\s+my\s+(own\s+)?life\b`,
			}),
		},
		&patternDetector{
			name:          "hate-speech",
			violationType: ViolationHateSpeech,
			severity:      SeverityCritical,
			confidence:    0.9,
			description:   "Text contains hate speech",
			patterns: compileAll([]string{
				`(?i)\b(hate|despise)\s+(all\s+)?(those|these)\s+people\b`,
				`(?i)\bgo\s+back\s+to\s+your\s+country\b`,
				`(?i)\b(subhuman|vermin)\b`,
			}),
		},
		&patternDetector{
			name:          "illegal-content",
			violationType: ViolationIllegalContent,
			severity:      SeverityCritical,
			confidence:    0.85,
			description:   "Text contains references to illegal activities",
			patterns: compileAll([]string{
				`(?i)\b(illegal|criminal|unlawful)\s+activity\b`,
				`(?i)\b(drug\s+dealing|sell\s+drugs|buy\s+cocaine)\b`,
				`(?i)\b(money\s+laundering|tax\s+evasion)\b`,
				`(?i)\b(hack|steal|rob|defraud)\s+(someone|a\s+system|a\s+bank)\b`,
			}),
		},
		&patternDetector{
			name:          "bias",
			violationType: ViolationBias,
			severity:      SeverityHigh,
			confidence:    0.8,
			description:   "Text contains potentially biased content",
			patterns: compileAll([]string{
				`(?i)\b(women|men)\s+are\s+(naturally|always|never)\b`,
				`(?i)\b(black|white|asian|hispanic)\s+people\s+are\b`,
				`(?i)\b(muslims|christians|jews)\s+are\s+(all|always)\b`,
				`(?i)\b(old|young)\s+people\s+(can't|cannot|shouldn't)\b`,
			}),
		},
		&patternDetector{
			name:           "privacy",
			violationType:  ViolationPrivacy,
			severity:       SeverityHigh,
			confidence:     0.9,
			description:    "Text contains personal contact information",
			redactEvidence: true,
			patterns: compileAll([]string{
				`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
				`\b\d{3}-\d{3}-\d{4}\b`,
				`(?i)\b\d{1,5}\s\w+\s(street|st|avenue|ave|road|rd|drive|dr)\b`,
			}),
		},
		&patternDetector{
			name:           "pii",
			violationType:  ViolationPIIDetected,
			severity:       SeverityHigh,
			confidence:     0.92,
			description:    "Text contains personally identifiable numbers",
			redactEvidence: true,
			patterns: compileAll([]string{
				`\b\d{3}-\d{2}-\d{4}\b`,
				`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`,
				`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`,
			}),
		},
		&patternDetector{
			name:          "misinformation",
			violationType: ViolationMisinformation,
			severity:      SeverityMedium,
			confidence:    0.75,
			description:   "Text contains potential misinformation",
			patterns: compileAll([]string{
				`(?i)vaccines?\s+(cause|causes)\s+autism`,
				`(?i)covid\s+is\s+a\s+hoax`,
				`(?i)climate\s+change\s+is\s+(fake|a\s+hoax)`,
				`(?i)earth\s+is\s+flat`,
				`(?i)5g\s+(causes|spreads)\s+covid`,
			}),
		},
		&patternDetector{
			name:          "manipulation",
			violationType: ViolationManipulation,
			severity:      SeverityMedium,
			confidence:    0.7,
			description:   "Text contains manipulative language",
			patterns: compileAll([]string{
				`(?i)\bnobody\s+will\s+(ever\s+)?believe\s+you\b`,
				`(?i)\bif\s+you\s+really\s+(loved|cared\s+about)\s+me\b`,
				`(?i)\byou\s+owe\s+me\b`,
				`(?i)\byou('re|\s+are)\s+(crazy|imagining\s+things)\b`,
			}),
		},
		&patternDetector{
			name:          "profanity",
			violationType: ViolationProfanity,
			severity:      SeverityLow,
			confidence:    0.7,
			description:   "Text contains profanity",
			patterns: compileAll([]string{
				`(?i)\b(damn\s+you|go\s+to\s+hell)\b`,
				`(?i)\b(bastard|asshole)\b`,
			}),
		},
	}
}
