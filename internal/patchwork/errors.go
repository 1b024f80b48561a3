package patchwork

import (
	"errors"
	"fmt"

	"github.com/sevigo/patch-warden/internal/patch"
)

// ErrorKind classifies tracker failures.
type ErrorKind int

const (
	// KindTransport covers network failures and timeouts.
	KindTransport ErrorKind = iota
	KindUnauthorized
	KindNotFound
	// KindRejected is any other refusal by the tracker.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not found"
	case KindRejected:
		return "rejected"
	default:
		return "transport failure"
	}
}

// TrackerError is returned for every failed tracker request.
type TrackerError struct {
	Kind    ErrorKind
	Op      string
	PatchID int
	Status  int
	Err     error
}

func (e *TrackerError) Error() string {
	msg := fmt.Sprintf("patchwork %s", e.Op)
	if e.PatchID != 0 {
		msg += fmt.Sprintf(" for patch %d", e.PatchID)
	}
	msg += ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a credential failure.
func IsUnauthorized(err error) bool {
	var te *TrackerError
	return errors.As(err, &te) && te.Kind == KindUnauthorized
}

// IsNotFound reports whether err is a missing record.
func IsNotFound(err error) bool {
	var te *TrackerError
	return errors.As(err, &te) && te.Kind == KindNotFound
}

// IncompleteFetchError is returned when pagination fails part way through.
// Records holds everything retrieved before the failure.
type IncompleteFetchError struct {
	Records []patch.Record
	Err     error
}

func (e *IncompleteFetchError) Error() string {
	return fmt.Sprintf("patch list incomplete after %d patches: %v", len(e.Records), e.Err)
}

func (e *IncompleteFetchError) Unwrap() error {
	return e.Err
}
