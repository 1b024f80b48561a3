package repomanager

import (
	"errors"
	"fmt"
)

var (
	ErrNothingApplied = errors.New("no applied patch to remove")
	ErrUnknownBackend = errors.New("unknown repository backend")
	ErrDirtyWorktree  = errors.New("working tree has uncommitted changes")
	ErrNoBranch       = errors.New("no branch checked out")
	ErrTopMismatch    = errors.New("repository top does not match the last applied patch")
)

// ConflictError reports a patch that does not apply. The repository has been
// restored to its state before the attempt.
type ConflictError struct {
	Backend string
	Output  string
	Err     error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: patch does not apply: %s", e.Backend, e.Output)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// RepositoryError reports an unexpected back-end failure.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func repoErr(op string, err error) error {
	var re *RepositoryError
	if errors.As(err, &re) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}

// IsConflict reports whether err is an apply conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
