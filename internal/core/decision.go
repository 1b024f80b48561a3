// Package core defines the data structures shared by the review workflow:
// operator decisions, tracker states, locally applied commits and the
// per-patch outcome report. It also defines the Oracle, the abstraction through
// which the workflow asks the operator to make a choice.
package core

import "fmt"

// DecisionKind is the operator's verdict for one patch.
type DecisionKind string

const (
	Accept         DecisionKind = "accept"
	RequestChanges DecisionKind = "request-changes"
	Defer          DecisionKind = "defer"
	Reject         DecisionKind = "reject"
	Skip           DecisionKind = "skip"
	Abort          DecisionKind = "abort"
)

// Decision couples a verdict with the optional free text reason given for it.
type Decision struct {
	Kind   DecisionKind
	Reason string
}

// AsksReason reports whether the operator is prompted for a reason.
func (k DecisionKind) AsksReason() bool {
	switch k {
	case RequestChanges, Defer, Reject:
		return true
	default:
		return false
	}
}

// RequiresReason reports whether a blank reason must be re-prompted.
// A deferral may stay silent.
func (k DecisionKind) RequiresReason() bool {
	return k == RequestChanges || k == Reject
}

// Mutates reports whether the decision changes the remote record.
func (k DecisionKind) Mutates() bool {
	_, ok := k.TargetState()
	return ok
}

// TargetState returns the tracker state a decision moves the patch to.
func (k DecisionKind) TargetState() (State, bool) {
	switch k {
	case Accept:
		return StateAccepted, true
	case RequestChanges:
		return StateChangesRequested, true
	case Defer:
		return StateDeferred, true
	case Reject:
		return StateRejected, true
	default:
		return "", false
	}
}

func (d Decision) String() string {
	if d.Reason == "" {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s (%s)", d.Kind, d.Reason)
}
