package repomanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/gitutil"
)

// gitRepository applies patches with `git am` on a detached HEAD. The
// pending branch only moves when the batch is committed, so an aborted
// session leaves it untouched.
type gitRepository struct {
	stack
	git    *gitutil.Client
	opts   Options
	logger *slog.Logger

	branch string
	base   string
}

func newGitRepository(client *gitutil.Client, opts Options, logger *slog.Logger) *gitRepository {
	return &gitRepository{git: client, opts: opts, logger: logger}
}

func (r *gitRepository) CurrentBranch(_ context.Context) (string, error) {
	if r.branch != "" {
		return r.branch, nil
	}
	branch, err := r.git.CurrentBranch()
	if err != nil {
		if errors.Is(err, gitutil.ErrDetachedHead) {
			return "", repoErr("current branch", ErrNoBranch)
		}
		return "", repoErr("current branch", err)
	}
	return branch, nil
}

// begin records the pending branch and detaches HEAD before the first apply.
func (r *gitRepository) begin(ctx context.Context) error {
	if len(r.applied) > 0 || r.opts.DryRun {
		return nil
	}

	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	status, err := r.git.Git(ctx, "", "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return repoErr("status", err)
	}
	if status != "" {
		return repoErr("apply", ErrDirtyWorktree)
	}
	base, err := r.git.Git(ctx, "", "rev-parse", "HEAD")
	if err != nil {
		return repoErr("rev-parse", err)
	}
	if _, err := r.git.Git(ctx, "", "checkout", "--quiet", "--detach"); err != nil {
		return repoErr("detach", err)
	}

	r.branch, r.base = branch, base
	r.logger.Debug("detached HEAD for review", "branch", branch, "base", base)
	return nil
}

// finish reattaches HEAD to the pending branch.
func (r *gitRepository) finish(ctx context.Context) error {
	if r.branch == "" {
		return nil
	}
	if _, err := r.git.Git(ctx, "", "checkout", "--quiet", r.branch); err != nil {
		return repoErr("checkout "+r.branch, err)
	}
	r.branch, r.base = "", ""
	return nil
}

func (r *gitRepository) Apply(ctx context.Context, mbox string) (core.Commit, error) {
	commit := newCommit(mbox)

	if r.opts.DryRun {
		if err := r.checkSeries(ctx, r.git, mbox); err != nil {
			return core.Commit{}, &ConflictError{Backend: "git", Output: conflictOutput(err), Err: err}
		}
		r.push(commit)
		return commit, nil
	}

	if err := r.begin(ctx); err != nil {
		return core.Commit{}, err
	}

	args := []string{"am", "-3"}
	if r.opts.Signoff {
		args = append(args, "--signoff")
	}
	if _, err := r.git.Git(ctx, mbox, args...); err != nil {
		return core.Commit{}, r.recover(ctx, err)
	}

	sha, err := r.git.Git(ctx, "", "rev-parse", "HEAD")
	if err != nil {
		return core.Commit{}, repoErr("rev-parse", err)
	}
	commit.Ref = sha
	r.push(commit)
	return commit, nil
}

// recover aborts a failed `git am` so the next attempt starts clean.
func (r *gitRepository) recover(ctx context.Context, amErr error) error {
	inProgress := r.amInProgress(ctx)
	if inProgress {
		if _, err := r.git.Git(ctx, "", "am", "--abort"); err != nil {
			return repoErr("am --abort", fmt.Errorf("%w (after: %v)", err, amErr))
		}
	}
	if len(r.applied) == 0 {
		if err := r.finish(ctx); err != nil {
			return err
		}
	}
	if !inProgress {
		return repoErr("am", amErr)
	}
	return &ConflictError{Backend: "git", Output: conflictOutput(amErr), Err: amErr}
}

func (r *gitRepository) amInProgress(ctx context.Context) bool {
	path, err := r.git.Git(ctx, "", "rev-parse", "--git-path", "rebase-apply")
	if err != nil {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.git.Dir, path)
	}
	_, err = os.Stat(path)
	return err == nil
}

func (r *gitRepository) PopTop(ctx context.Context) error {
	top, ok := r.top()
	if !ok {
		return ErrNothingApplied
	}
	if r.opts.DryRun {
		r.pop()
		return nil
	}

	head, err := r.git.Git(ctx, "", "rev-parse", "HEAD")
	if err != nil {
		return repoErr("rev-parse", err)
	}
	if head != top.Ref {
		return repoErr("pop", fmt.Errorf("%w: HEAD is %s, expected %s", ErrTopMismatch, head, top.Ref))
	}

	prev := r.base
	if len(r.applied) > 1 {
		prev = r.applied[len(r.applied)-2].Ref
	}
	if _, err := r.git.Git(ctx, "", "reset", "--quiet", "--hard", prev); err != nil {
		return repoErr("reset", err)
	}
	r.pop()

	if len(r.applied) == 0 {
		return r.finish(ctx)
	}
	return nil
}

func (r *gitRepository) Drop(ctx context.Context, ids []string) error {
	return dropCommits(ctx, r, ids)
}

func (r *gitRepository) CommitAll(ctx context.Context) error {
	if r.opts.DryRun {
		r.applied = nil
		return nil
	}
	if len(r.applied) == 0 {
		return r.finish(ctx)
	}

	top, _ := r.top()
	ref := "refs/heads/" + r.branch
	if _, err := r.git.Git(ctx, "", "update-ref", "-m", "patch-warden: commit reviewed patches", ref, top.Ref, r.base); err != nil {
		return repoErr("update-ref", err)
	}
	count := len(r.applied)
	branch := r.branch
	if err := r.finish(ctx); err != nil {
		return err
	}
	r.applied = nil
	r.logger.Info("committed patches", "branch", branch, "count", count)
	return nil
}

func (r *gitRepository) CommitIndividually(ctx context.Context, confirm ConfirmFunc) error {
	return commitIndividually(ctx, r, confirm)
}

func (r *gitRepository) TrackedPatches(ctx context.Context) (map[int]string, error) {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	return trackedPatches(r.git, branch)
}
