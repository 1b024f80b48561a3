// Package repomanager applies patches to the local repository and finalizes
// them onto the pending branch. Two back-ends share one interface: a plain git
// branch and an stgit patch stack.
package repomanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/gitutil"
	"github.com/sevigo/patch-warden/internal/patch"
)

// Backend names a repository back-end.
type Backend string

const (
	BackendGit   Backend = "git"
	BackendStgit Backend = "stgit"
)

// historyScanLimit bounds the commits inspected for tracking trailers.
const historyScanLimit = 5000

// ConfirmFunc is asked about each commit when committing individually.
type ConfirmFunc func(ctx context.Context, c core.Commit) (bool, error)

// Repository is the set of operations a review session performs on the
// local repository. Implementations are not safe for concurrent use.
//
//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks . Repository
type Repository interface {
	CurrentBranch(ctx context.Context) (string, error)
	// Apply adds the patch on top of the already applied ones. A conflict
	// leaves the repository as it was before the call.
	Apply(ctx context.Context, mbox string) (core.Commit, error)
	// PopTop removes the most recently applied commit.
	PopTop(ctx context.Context) error
	// Drop removes the commits with the given ids, keeping the order of the
	// others.
	Drop(ctx context.Context, ids []string) error
	CommitAll(ctx context.Context) error
	CommitIndividually(ctx context.Context, confirm ConfirmFunc) error
	// Applied returns the commits applied and not yet finalized, oldest first.
	Applied() []core.Commit
	// TrackedPatches maps tracker ids found in the branch history to the
	// commits carrying them.
	TrackedPatches(ctx context.Context) (map[int]string, error)
}

// Options tune a back-end.
type Options struct {
	// DryRun validates patches without changing the repository.
	DryRun bool
	// Signoff adds the operator's Signed-off-by when applying.
	Signoff bool
}

// New returns the Repository for backend.
func New(backend Backend, client *gitutil.Client, opts Options, logger *slog.Logger) (Repository, error) {
	switch backend {
	case BackendGit, "":
		return newGitRepository(client, opts, logger), nil
	case BackendStgit:
		return newStgitRepository(client, opts, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// stack holds the bookkeeping shared by both back-ends.
type stack struct {
	applied []core.Commit
}

func (s *stack) Applied() []core.Commit {
	out := make([]core.Commit, len(s.applied))
	copy(out, s.applied)
	return out
}

func (s *stack) top() (core.Commit, bool) {
	if len(s.applied) == 0 {
		return core.Commit{}, false
	}
	return s.applied[len(s.applied)-1], true
}

func (s *stack) push(c core.Commit) {
	s.applied = append(s.applied, c)
}

func (s *stack) pop() {
	s.applied = s.applied[:len(s.applied)-1]
}

// checkSeries runs `git apply --check` on mbox stacked on the commits
// applied so far, so a patch is validated against the result of the earlier
// ones. Nothing in the working tree or the index changes.
func (s *stack) checkSeries(ctx context.Context, client *gitutil.Client, mbox string) error {
	var series strings.Builder
	for _, c := range s.applied {
		series.WriteString(c.Mbox)
		if !strings.HasSuffix(c.Mbox, "\n") {
			series.WriteString("\n")
		}
	}
	series.WriteString(mbox)
	_, err := client.Git(ctx, series.String(), "apply", "--check")
	return err
}

// newCommit describes the patch in mbox before the back-end fills in Ref.
func newCommit(mbox string) core.Commit {
	c := core.Commit{ID: patch.ContentID(mbox), Mbox: mbox}
	if msg, err := patch.ParseMbox(mbox); err == nil {
		c.Summary = patch.CleanSubject(msg.Subject())
	}
	if id, ok := patch.ParseTrackingID(mbox); ok {
		c.PatchID = id
	}
	return c
}

// dropCommits unwinds the stack down to the lowest dropped commit and
// re-applies the kept ones in their original order. Removal is strictly
// from the top.
func dropCommits(ctx context.Context, r Repository, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	applied := r.Applied()
	lowest := -1
	for i, c := range applied {
		if drop[c.ID] {
			lowest = i
			break
		}
	}
	if lowest < 0 {
		return nil
	}

	for range applied[lowest:] {
		if err := r.PopTop(ctx); err != nil {
			return err
		}
	}
	for _, c := range applied[lowest:] {
		if drop[c.ID] {
			continue
		}
		if _, err := r.Apply(ctx, c.Mbox); err != nil {
			return repoErr("re-apply "+c.AbbrevID(), err)
		}
	}
	return nil
}

// commitIndividually asks about every applied commit, drops the declined
// ones and commits the rest.
func commitIndividually(ctx context.Context, r Repository, confirm ConfirmFunc) error {
	var declined []string
	for _, c := range r.Applied() {
		ok, err := confirm(ctx, c)
		if err != nil {
			return err
		}
		if !ok {
			declined = append(declined, c.ID)
		}
	}
	if err := r.Drop(ctx, declined); err != nil {
		return err
	}
	return r.CommitAll(ctx)
}

// trackedPatches scans the branch history for tracking trailers.
func trackedPatches(client *gitutil.Client, branch string) (map[int]string, error) {
	found := make(map[int]string)
	err := client.ScanBranch(branch, historyScanLimit, func(commit *object.Commit) bool {
		if id, ok := patch.ParseTrackingID(commit.Message); ok {
			if _, seen := found[id]; !seen {
				found[id] = commit.Hash.String()
			}
		}
		return true
	})
	if err != nil {
		return nil, repoErr("scan history", err)
	}
	return found, nil
}

func conflictOutput(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "failed: "); i >= 0 {
		msg = msg[i+len("failed: "):]
	}
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	if len(lines) > 6 {
		lines = lines[:6]
	}
	return strings.Join(lines, "\n")
}

// conflictMarkers are the messages git and stgit print when the patch
// content, rather than the environment, is the problem.
var conflictMarkers = []string{
	"does not apply",
	"patch failed",
	"conflict",
	"merge failed",
	"already exists in working directory",
	"does not exist in index",
	"corrupt patch",
}

// isContentFailure reports whether a failed command refused the patch
// itself. Failures to start the command never are.
func isContentFailure(err error) bool {
	var ce *gitutil.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	out := strings.ToLower(ce.Result.Output())
	for _, marker := range conflictMarkers {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}
