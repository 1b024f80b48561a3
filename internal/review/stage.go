package review

// Stage is the position of one patch in the review workflow.
type Stage string

const (
	StageFetched          Stage = "fetched"
	StageApplying         Stage = "applying"
	StageApplied          Stage = "applied"
	StageConflict         Stage = "conflict"
	StageAwaitingDecision Stage = "awaiting-decision"
	StageDeciding         Stage = "deciding"
	StageNotifying        Stage = "notifying"
	StageStateSyncing     Stage = "state-syncing"
	StageCommitted        Stage = "committed"
	StageDecided          Stage = "decided"
	StageSkipped          Stage = "skipped"
	StageAborted          Stage = "aborted"
	StagePending          Stage = "pending"
	StageFailed           Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	switch s {
	case StageCommitted, StageDecided, StageSkipped, StageAborted, StagePending, StageFailed:
		return true
	default:
		return false
	}
}
