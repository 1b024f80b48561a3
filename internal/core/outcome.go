package core

// Status is the terminal state of one patch in a session.
type Status string

const (
	StatusCommitted Status = "committed"
	// StatusDecided means the remote state was pushed but the local commit was
	// not kept, as for any decision other than accept.
	StatusDecided Status = "decided"
	StatusSkipped Status = "skipped"
	StatusAborted Status = "aborted"
	// StatusPending marks a commit left applied after a fatal error.
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Outcome reports what happened to one patch.
type Outcome struct {
	PatchID     int
	Title       string
	Status      Status
	Decision    Decision
	RemoteState State
	Notified    bool
	Commit      *Commit
	Err         error
}

// IsError reports whether the outcome needs operator attention.
func (o Outcome) IsError() bool {
	return o.Status == StatusFailed || o.Status == StatusPending
}

// Report is the ordered list of outcomes for a session.
type Report struct {
	Outcomes []Outcome
}

// HasErrors reports whether any patch ended in an error state.
func (r Report) HasErrors() bool {
	for _, o := range r.Outcomes {
		if o.IsError() {
			return true
		}
	}
	return false
}

// ExitCode maps the report to a process exit status.
func (r Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}

// Count returns the number of outcomes with the given status.
func (r Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
