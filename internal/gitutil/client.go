// Package gitutil runs git and stgit commands against a working tree and
// reads repository history with go-git.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// Client handles interacting with one working tree.
type Client struct {
	Logger *slog.Logger
	Runner Runner
	Dir    string
}

// NewClient returns a new Client for the working tree at dir.
func NewClient(logger *slog.Logger, runner Runner, dir string) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{Logger: logger, Runner: runner, Dir: dir}
}

// Git runs a git subcommand and returns its trimmed stdout.
func (c *Client) Git(ctx context.Context, stdin string, args ...string) (string, error) {
	return c.run(ctx, stdin, "git", args...)
}

// Stg runs an stgit subcommand and returns its trimmed stdout.
func (c *Client) Stg(ctx context.Context, stdin string, args ...string) (string, error) {
	return c.run(ctx, stdin, "stg", args...)
}

func (c *Client) run(ctx context.Context, stdin, name string, args ...string) (string, error) {
	c.Logger.DebugContext(ctx, "running command", "cmd", name, "args", args)
	res, err := c.Runner.Run(ctx, c.Dir, stdin, name, args...)
	if err != nil {
		return strings.TrimSpace(res.Stdout), fmt.Errorf("%s %s failed: %s: %w", name, firstArg(args), res.Output(), err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Open opens the repository containing the working tree.
func (c *Client) Open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(c.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", c.Dir, err)
	}
	return repo, nil
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (c *Client) CurrentBranch() (string, error) {
	repo, err := c.Open()
	if err != nil {
		return "", err
	}
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// ScanBranch walks the history of branch, newest first, calling fn for each
// commit until fn returns false or limit commits were visited.
func (c *Client) ScanBranch(branch string, limit int, fn func(*object.Commit) bool) error {
	repo, err := c.Open()
	if err != nil {
		return err
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return fmt.Errorf("failed to read log of %s: %w", branch, err)
	}
	defer iter.Close()

	visited := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		if limit > 0 && visited >= limit {
			return storer.ErrStop
		}
		visited++
		if !fn(commit) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", branch, err)
	}
	return nil
}
