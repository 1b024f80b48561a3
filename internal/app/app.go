// Package app ties the tracker, the repository and the review session
// together for the commands of the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/internal/repomanager"
)

var (
	// ErrNothingToReview is returned when the selection matches no patch.
	ErrNothingToReview = errors.New("no patches to review")
	// ErrWrongBranch is returned when the working tree is not on the review branch.
	ErrWrongBranch = errors.New("wrong branch checked out")
)

// Reviewer runs a review session.
type Reviewer interface {
	Run(ctx context.Context, patches []*patch.Patch) (core.Report, error)
}

// App holds the main application components.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	syncer   *patchwork.Syncer
	repo     repomanager.Repository
	reviewer Reviewer
}

// NewApp sets up the application with all its dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger, syncer *patchwork.Syncer, repo repomanager.Repository, reviewer Reviewer) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		syncer:   syncer,
		repo:     repo,
		reviewer: reviewer,
	}
}

// Config returns the configuration the application was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) filter(states []string) patchwork.Filter {
	archived := false
	if len(states) == 0 {
		states = a.cfg.Review.States
	}
	return patchwork.Filter{
		Project:  a.cfg.Tracker.Project,
		States:   states,
		Archived: &archived,
		Order:    "date",
	}
}

// List returns the patches of the project in the given states, or in the
// configured review states when none are given. A listing cut short by a
// failing page returns the patches gathered so far with an
// *patchwork.IncompleteFetchError.
func (a *App) List(ctx context.Context, states []string) ([]*patch.Patch, error) {
	records, err := a.syncer.ListAll(ctx, a.filter(states))
	return toPatches(records), err
}

// Select returns the patches with the given ids, or the listing for the
// configured review states when ids is empty.
func (a *App) Select(ctx context.Context, ids []int, states []string) ([]*patch.Patch, error) {
	if len(ids) > 0 {
		records, err := a.syncer.Fetch(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch patches: %w", err)
		}
		return toPatches(records), nil
	}

	records, err := a.syncer.ListAll(ctx, a.filter(states))
	if err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}
	return toPatches(records), nil
}

// Review selects patches and runs a review session over them.
func (a *App) Review(ctx context.Context, ids []int, states []string) (core.Report, error) {
	if err := a.checkBranch(ctx); err != nil {
		return core.Report{}, err
	}

	patches, err := a.Select(ctx, ids, states)
	if err != nil {
		return core.Report{}, err
	}
	if len(patches) == 0 {
		return core.Report{}, ErrNothingToReview
	}

	a.logger.Info("starting review", "patches", len(patches), "project", a.cfg.Tracker.Project)
	report, err := a.reviewer.Run(ctx, patches)
	if err != nil {
		a.logger.Error("review stopped", "error", err)
		return report, err
	}
	a.logger.Info("review finished",
		"committed", report.Count(core.StatusCommitted),
		"decided", report.Count(core.StatusDecided),
		"skipped", report.Count(core.StatusSkipped))
	return report, nil
}

func (a *App) checkBranch(ctx context.Context) error {
	want := a.cfg.Git.Branch
	if want == "" {
		return nil
	}
	have, err := a.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if have != want {
		return fmt.Errorf("%w: on %q, reviews happen on %q", ErrWrongBranch, have, want)
	}
	return nil
}

// Events returns the tracker event log of a patch.
func (a *App) Events(ctx context.Context, id int) ([]patchwork.Event, error) {
	return a.syncer.Client().ListEvents(ctx, patchwork.EventFilter{Patch: id})
}

func toPatches(records []patch.Record) []*patch.Patch {
	patches := make([]*patch.Patch, 0, len(records))
	for _, rec := range records {
		patches = append(patches, patch.New(rec))
	}
	return patches
}
