package core

import (
	"fmt"
	"regexp"
	"strings"
)

// State is a tracker state slug. The vocabulary belongs to the tracker, so any
// well formed slug is accepted; the constants below are the ones the workflow
// makes policy decisions on.
type State string

const (
	StateNew              State = "new"
	StateUnderReview      State = "under-review"
	StateAccepted         State = "accepted"
	StateRejected         State = "rejected"
	StateRFC              State = "rfc"
	StateNotApplicable    State = "not-applicable"
	StateChangesRequested State = "changes-requested"
	StateAwaitingUpstream State = "awaiting-upstream"
	StateSuperseded       State = "superseded"
	StateDeferred         State = "deferred"
)

var stateSlugRegexp = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ParseState normalizes display forms such as "Changes Requested" or
// "changes_requested" into a slug and validates it.
func ParseState(s string) (State, error) {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	if !stateSlugRegexp.MatchString(slug) {
		return "", fmt.Errorf("invalid state %q", s)
	}
	return State(slug), nil
}

// IsFinal reports whether the state closes the review of a patch.
func (s State) IsFinal() bool {
	switch s {
	case StateAccepted, StateRejected, StateNotApplicable, StateSuperseded:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
