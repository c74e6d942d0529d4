package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openvault/openvault/internal/safety"
	"github.com/openvault/openvault/internal/types"
)

// SafetyBlockedError is the strict-mode verdict: the request or response was
// refused on safety grounds. It is an intended business outcome, not a
// fault, and carries the violations so callers can explain the refusal.
type SafetyBlockedError struct {
	// Stage is where the block occurred: "preflight", "postflight", or
	// "stream".
	Stage string

	Violations []safety.Violation
}

func (e *SafetyBlockedError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("completion blocked by safety check (%s)", e.Stage)
	}

	kinds := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		kinds = append(kinds, fmt.Sprintf("%s/%s", v.Type, v.Severity))
	}
	return fmt.Sprintf("completion blocked by safety check (%s): %s", e.Stage, strings.Join(kinds, ", "))
}

// Is lets errors.Is match any SafetyBlockedError against the typed code
func (e *SafetyBlockedError) Is(target error) bool {
	var ovErr *types.OpenVaultError
	if errors.As(target, &ovErr) {
		return ovErr.Code == types.SAFETY_BLOCKED
	}
	var blocked *SafetyBlockedError
	return errors.As(target, &blocked)
}

// IsSafetyBlocked reports whether err is a safety block verdict
func IsSafetyBlocked(err error) bool {
	var blocked *SafetyBlockedError
	return errors.As(err, &blocked)
}

// AsSafetyBlocked extracts a SafetyBlockedError from an error chain
func AsSafetyBlocked(err error) (*SafetyBlockedError, bool) {
	var blocked *SafetyBlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}
