package repomanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/gitutil"
	"github.com/sevigo/patch-warden/internal/patch"
)

var ErrSeriesMismatch = errors.New("applied stgit series does not match the reviewed patches")

// StackEntry is the parsed `stg show` output for one stack patch.
type StackEntry struct {
	Name      string
	CommitID  string
	Title     string
	Body      string
	TrackerID int
}

// stgitRepository imports patches onto the current stgit stack. The stack
// is the pending branch, so committing only validates the series.
type stgitRepository struct {
	stack
	git    *gitutil.Client
	opts   Options
	logger *slog.Logger

	initialized bool
}

func newStgitRepository(client *gitutil.Client, opts Options, logger *slog.Logger) *stgitRepository {
	return &stgitRepository{git: client, opts: opts, logger: logger}
}

func (r *stgitRepository) CurrentBranch(_ context.Context) (string, error) {
	branch, err := r.git.CurrentBranch()
	if err != nil {
		if errors.Is(err, gitutil.ErrDetachedHead) {
			return "", repoErr("current branch", ErrNoBranch)
		}
		return "", repoErr("current branch", err)
	}
	return branch, nil
}

func (r *stgitRepository) series(ctx context.Context) ([]string, error) {
	out, err := r.git.Stg(ctx, "", "series", "--applied", "--noprefix")
	if err != nil {
		return nil, repoErr("stg series", err)
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (r *stgitRepository) stackTop(ctx context.Context) string {
	// `stg top` fails on an empty stack.
	name, err := r.git.Stg(ctx, "", "top")
	if err != nil {
		return ""
	}
	return name
}

func (r *stgitRepository) Apply(ctx context.Context, mbox string) (core.Commit, error) {
	commit := newCommit(mbox)

	if r.opts.DryRun {
		if err := r.checkSeries(ctx, r.git, mbox); err != nil {
			return core.Commit{}, &ConflictError{Backend: "stgit", Output: conflictOutput(err), Err: err}
		}
		r.push(commit)
		return commit, nil
	}

	if !r.initialized {
		if _, err := r.series(ctx); err != nil {
			return core.Commit{}, err
		}
		r.initialized = true
	}

	before := r.stackTop(ctx)
	args := []string{"import", "--mbox"}
	if r.opts.Signoff {
		args = append(args, "--sign")
	}
	if _, err := r.git.Stg(ctx, mbox, args...); err != nil {
		if after := r.stackTop(ctx); after != "" && after != before {
			if _, delErr := r.git.Stg(ctx, "", "delete", "--top"); delErr != nil {
				return core.Commit{}, repoErr("stg delete", fmt.Errorf("%w (after: %v)", delErr, err))
			}
		}
		if !isContentFailure(err) {
			return core.Commit{}, repoErr("stg import", err)
		}
		return core.Commit{}, &ConflictError{Backend: "stgit", Output: conflictOutput(err), Err: err}
	}

	name := r.stackTop(ctx)
	if name == "" || name == before {
		return core.Commit{}, repoErr("stg import", errors.New("import did not add a patch"))
	}
	commit.Ref = name

	if entry, err := r.Show(ctx, name); err == nil {
		if commit.PatchID == 0 {
			commit.PatchID = entry.TrackerID
		}
		if commit.Summary == "" {
			commit.Summary = patch.CleanSubject(entry.Title)
		}
	} else {
		r.logger.Warn("failed to inspect imported patch", "patch", name, "error", err)
	}

	r.push(commit)
	return commit, nil
}

// Show parses `stg show` for a stack patch.
func (r *stgitRepository) Show(ctx context.Context, name string) (StackEntry, error) {
	out, err := r.git.Stg(ctx, "", "show", name)
	if err != nil {
		return StackEntry{}, repoErr("stg show", err)
	}
	return parseStackEntry(name, out)
}

func parseStackEntry(name, out string) (StackEntry, error) {
	_, preamble, err := gitdiff.Parse(strings.NewReader(out))
	if err != nil {
		return StackEntry{}, fmt.Errorf("failed to parse stg show output: %w", err)
	}
	header, err := gitdiff.ParsePatchHeader(preamble)
	if err != nil {
		return StackEntry{}, fmt.Errorf("failed to parse stg show header: %w", err)
	}

	entry := StackEntry{
		Name:     name,
		CommitID: header.SHA,
		Title:    header.Title,
		Body:     header.Body,
	}
	if id, ok := patch.ParseTrackingID(header.Body); ok {
		entry.TrackerID = id
	}
	return entry, nil
}

func (r *stgitRepository) PopTop(ctx context.Context) error {
	top, ok := r.top()
	if !ok {
		return ErrNothingApplied
	}
	if r.opts.DryRun {
		r.pop()
		return nil
	}

	if current := r.stackTop(ctx); current != top.Ref {
		return repoErr("pop", fmt.Errorf("%w: stack top is %q, expected %q", ErrTopMismatch, current, top.Ref))
	}
	if _, err := r.git.Stg(ctx, "", "delete", "--top"); err != nil {
		return repoErr("stg delete", err)
	}
	r.pop()
	return nil
}

func (r *stgitRepository) Drop(ctx context.Context, ids []string) error {
	return dropCommits(ctx, r, ids)
}

func (r *stgitRepository) CommitAll(ctx context.Context) error {
	if r.opts.DryRun || len(r.applied) == 0 {
		r.applied = nil
		return nil
	}

	series, err := r.series(ctx)
	if err != nil {
		return err
	}
	if len(series) < len(r.applied) {
		return repoErr("commit", ErrSeriesMismatch)
	}
	tail := series[len(series)-len(r.applied):]
	for i, c := range r.applied {
		if tail[i] != c.Ref {
			return repoErr("commit", fmt.Errorf("%w: expected %q at position %d, found %q", ErrSeriesMismatch, c.Ref, i, tail[i]))
		}
	}

	r.logger.Info("reviewed patches kept on stack", "count", len(r.applied), "top", r.applied[len(r.applied)-1].Ref)
	r.applied = nil
	return nil
}

func (r *stgitRepository) CommitIndividually(ctx context.Context, confirm ConfirmFunc) error {
	return commitIndividually(ctx, r, confirm)
}

func (r *stgitRepository) TrackedPatches(ctx context.Context) (map[int]string, error) {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	return trackedPatches(r.git, branch)
}
