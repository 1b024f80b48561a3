// Package review runs one review pass: it applies the queued patches, asks
// the operator for a decision on each, mirrors the decisions to the tracker,
// sends the replies and finalizes the accepted commits.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/notify"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/internal/repomanager"
)

const defaultPrefetchLimit = 4

// Tracker is the part of the tracker the session talks to.
type Tracker interface {
	FetchMbox(ctx context.Context, p *patch.Patch) error
	PushState(ctx context.Context, id int, state core.State) (patch.Record, error)
	PushDelegate(ctx context.Context, id int, userID int) (patch.Record, error)
}

// Notifier sends the reply to a decision.
type Notifier interface {
	Required(kind core.DecisionKind) bool
	Send(ctx context.Context, p *patch.Patch, decision core.Decision) (notify.Result, error)
}

// PullRequests describes the pull request a patch links to.
type PullRequests interface {
	Describe(ctx context.Context, url string) (string, error)
}

// Config tunes a session.
type Config struct {
	// Series processes the patches of one series together.
	Series bool
	// ConflictLimit stops offering Retry after that many conflicts on one
	// patch. Zero means no limit.
	ConflictLimit int
	// Delegate is assigned to every decided patch when set.
	Delegate *patch.User
	// Censor renders mboxes with a fixed envelope date.
	Censor bool
	// PrefetchLimit bounds concurrent mbox downloads.
	PrefetchLimit int
	// Branch is shown when asking to commit.
	Branch string
}

// Session drives patches through the review workflow. A session is used
// from a single goroutine.
type Session struct {
	repo     repomanager.Repository
	tracker  Tracker
	notifier Notifier
	oracle   core.Oracle
	pulls    PullRequests
	cfg      Config
	logger   *slog.Logger
}

// NewSession returns a Session. pulls may be nil.
func NewSession(repo repomanager.Repository, tracker Tracker, notifier Notifier, oracle core.Oracle, pulls PullRequests, cfg Config, logger *slog.Logger) *Session {
	if cfg.PrefetchLimit <= 0 {
		cfg.PrefetchLimit = defaultPrefetchLimit
	}
	return &Session{
		repo:     repo,
		tracker:  tracker,
		notifier: notifier,
		oracle:   oracle,
		pulls:    pulls,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run reviews patches and reports an outcome for every one of them. The
// error is non-nil only when the session had to stop; commits still applied
// at that point are reported as pending and left in the repository.
func (s *Session) Run(ctx context.Context, patches []*patch.Patch) (core.Report, error) {
	queue := patches
	if s.cfg.Series {
		queue = GroupSeries(patches)
	}

	p := &pass{Session: s}
	for _, pt := range queue {
		p.entries = append(p.entries, &entry{patch: pt, stage: StageFetched})
	}

	err := p.execute(ctx)
	return p.report(), err
}

// entry is the session's bookkeeping for one patch.
type entry struct {
	patch    *patch.Patch
	stage    Stage
	commit   *core.Commit
	draft    core.Decision
	decision core.Decision
	notified bool
	details  []string
	err      error
}

type pass struct {
	*Session
	entries []*entry
	// current is the entry whose operation is in flight.
	current *entry
}

type applyResult int

const (
	applyOK applyResult = iota
	applySkipped
	applyFailed
	applyAborted
)

var decisionChoices = []core.Choice{
	core.ChoiceAccept,
	core.ChoiceRequestChanges,
	core.ChoiceDefer,
	core.ChoiceReject,
	core.ChoiceSkip,
	core.ChoiceAbort,
}

func (p *pass) execute(ctx context.Context) error {
	if err := p.prefetch(ctx); err != nil {
		return p.fatal(err)
	}
	p.inspect(ctx)

	applied, err := p.applyAll(ctx)
	if err != nil {
		return p.fatal(err)
	}
	if len(applied) == 0 {
		p.logger.Info("no patches applied")
		return nil
	}

	aborted, err := p.decideAll(ctx, applied)
	if err != nil {
		return p.fatal(err)
	}
	if aborted {
		if err := p.abortAll(ctx); err != nil {
			return p.fatal(err)
		}
		return nil
	}

	if err := p.finalize(ctx, applied); err != nil {
		return p.fatal(err)
	}
	return nil
}

func (p *pass) transition(e *entry, stage Stage) {
	p.logger.Debug("patch stage", "patch_id", e.patch.ID, "from", e.stage, "to", stage)
	e.stage = stage
}

func (p *pass) fail(e *entry, err error) {
	e.err = err
	p.transition(e, StageFailed)
	p.logger.Error("patch failed", "patch_id", e.patch.ID, "title", e.patch.Title, "error", err)
}

// prefetch downloads every mbox before anything is applied. A failed
// download fails only its patch, except for a credential failure.
func (p *pass) prefetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.PrefetchLimit)

	for _, e := range p.entries {
		g.Go(func() error {
			err := p.tracker.FetchMbox(gctx, e.patch)
			if err == nil {
				return nil
			}
			if patchwork.IsUnauthorized(err) {
				return err
			}
			p.fail(e, fmt.Errorf("fetch mbox: %w", err))
			return nil
		})
	}
	return g.Wait()
}

// inspect collects the details shown with the decision prompt.
func (p *pass) inspect(ctx context.Context) {
	tracked, err := p.repo.TrackedPatches(ctx)
	if err != nil {
		p.logger.Warn("could not scan branch history for applied patches", "error", err)
	}

	for _, e := range p.entries {
		if e.stage.Terminal() {
			continue
		}
		if mbox, ok := e.patch.Mbox(); ok {
			if stat, err := patch.Diffstat(mbox); err == nil && stat.Files > 0 {
				e.details = append(e.details, stat.String())
			}
		}
		if ref, ok := tracked[e.patch.ID]; ok {
			if len(ref) > core.AbbrevLen {
				ref = ref[:core.AbbrevLen]
			}
			p.logger.Warn("patch already applied", "patch_id", e.patch.ID, "commit", ref)
			e.details = append(e.details, "already applied as "+ref)
		}
		if e.patch.PullURL != "" && p.pulls != nil {
			desc, err := p.pulls.Describe(ctx, e.patch.PullURL)
			if err != nil {
				p.logger.Warn("pull request lookup failed", "patch_id", e.patch.ID, "url", e.patch.PullURL, "error", err)
				e.details = append(e.details, "pull request: "+e.patch.PullURL)
			} else {
				e.details = append(e.details, desc)
			}
		}
	}
}

// applyAll applies the queue in order and returns the applied entries.
func (p *pass) applyAll(ctx context.Context) ([]*entry, error) {
	var applied []*entry
	for i, e := range p.entries {
		if e.stage.Terminal() {
			continue
		}

		p.current = e
		res, err := p.apply(ctx, e)
		if err != nil {
			return applied, err
		}
		p.current = nil
		switch res {
		case applyOK:
			applied = append(applied, e)
		case applyAborted:
			for _, rest := range p.entries[i:] {
				if !rest.stage.Terminal() {
					p.transition(rest, StageAborted)
				}
			}
			p.logger.Info("applying stopped", "patch_id", e.patch.ID, "applied", len(applied))
			return applied, nil
		}
	}
	return applied, nil
}

func (p *pass) apply(ctx context.Context, e *entry) (applyResult, error) {
	mbox, err := e.patch.MboxForApply(patch.MboxOptions{Censor: p.cfg.Censor})
	if err != nil {
		p.fail(e, err)
		return applyFailed, nil
	}

	conflicts := 0
	for {
		p.transition(e, StageApplying)
		commit, err := p.repo.Apply(ctx, mbox)
		if err == nil {
			e.commit = &commit
			e.details = append(e.details, commit.Oneline())
			p.transition(e, StageApplied)
			p.logger.Info("patch applied", "patch_id", e.patch.ID, "commit", commit.AbbrevID())
			return applyOK, nil
		}

		if !repomanager.IsConflict(err) {
			p.fail(e, err)
			return applyFailed, nil
		}

		conflicts++
		p.transition(e, StageConflict)
		p.logger.Warn("patch does not apply", "patch_id", e.patch.ID, "title", e.patch.Title, "attempt", conflicts)

		choices := []core.Choice{core.ChoiceRetry, core.ChoiceSkip, core.ChoiceAbort}
		if p.cfg.ConflictLimit > 0 && conflicts >= p.cfg.ConflictLimit {
			choices = choices[1:]
		}
		ans, err := p.oracle.Decide(ctx, core.Question{
			Kind:    core.AskConflict,
			Subject: e.patch.Subject(e.details...),
			Choices: choices,
			Err:     err,
		})
		if err != nil {
			return applyFailed, err
		}

		switch ans.Choice {
		case core.ChoiceRetry:
			continue
		case core.ChoiceSkip:
			p.transition(e, StageSkipped)
			return applySkipped, nil
		case core.ChoiceAbort:
			return applyAborted, nil
		default:
			return applyFailed, fmt.Errorf("unexpected answer %q to conflict", ans.Choice)
		}
	}
}

// decideAll asks for a decision on every applied patch. It reports true
// when the operator aborted the session.
func (p *pass) decideAll(ctx context.Context, applied []*entry) (bool, error) {
	for _, e := range applied {
		p.current = e
		aborted, err := p.decide(ctx, e)
		if err != nil {
			return false, err
		}
		p.current = nil
		if aborted {
			return true, nil
		}
	}
	return false, nil
}

func (p *pass) decide(ctx context.Context, e *entry) (bool, error) {
	var lastErr error
	for {
		p.transition(e, StageAwaitingDecision)
		ans, err := p.oracle.Decide(ctx, core.Question{
			Kind:    core.AskDecision,
			Subject: e.patch.Subject(e.details...),
			Choices: decisionChoices,
			Err:     lastErr,
		})
		if err != nil {
			return false, err
		}

		kind := core.DecisionKind(ans.Choice)
		switch kind {
		case core.Skip:
			e.decision = core.Decision{Kind: core.Skip}
			return false, nil
		case core.Abort:
			p.logger.Info("session aborted", "patch_id", e.patch.ID)
			return true, nil
		}
		if !kind.Mutates() {
			return false, fmt.Errorf("unexpected decision %q", ans.Choice)
		}
		target, _ := kind.TargetState()

		p.transition(e, StageDeciding)
		decision, err := p.reason(ctx, e, kind)
		if err != nil {
			return false, err
		}

		if p.notifier.Required(kind) {
			p.transition(e, StageNotifying)
			res, err := p.notifier.Send(ctx, e.patch, decision)
			if err != nil {
				return false, err
			}
			e.notified = res.Delivered
			if !res.Delivered {
				p.logger.Warn("reply not sent, the tracker will still be updated",
					"patch_id", e.patch.ID, "title", e.patch.Title, "decision", kind)
			}
		}

		p.transition(e, StageStateSyncing)
		if err := p.sync(ctx, e, target); err != nil {
			if patchwork.IsUnauthorized(err) {
				return false, err
			}
			p.logger.Error("tracker update failed", "patch_id", e.patch.ID, "title", e.patch.Title, "error", err)
			lastErr = err
			continue
		}

		e.decision = decision
		p.logger.Info("patch decided", "patch_id", e.patch.ID, "decision", kind, "state", target)
		return false, nil
	}
}

// reason asks for the reason of a decision. A reason given earlier for the
// same kind is reused so a retried decision produces the same reply.
func (p *pass) reason(ctx context.Context, e *entry, kind core.DecisionKind) (core.Decision, error) {
	if !kind.AsksReason() {
		return core.Decision{Kind: kind}, nil
	}
	if e.draft.Kind == kind {
		return e.draft, nil
	}

	prompt := fmt.Sprintf("Reason for %s", kind)
	for {
		ans, err := p.oracle.Decide(ctx, core.Question{
			Kind:    core.AskReason,
			Subject: e.patch.Subject(e.details...),
			Prompt:  prompt,
		})
		if err != nil {
			return core.Decision{}, err
		}

		reason := strings.TrimSpace(ans.Text)
		if reason == "" && kind.RequiresReason() {
			prompt = fmt.Sprintf("A reason is required for %s", kind)
			continue
		}
		e.draft = core.Decision{Kind: kind, Reason: reason}
		return e.draft, nil
	}
}

func (p *pass) sync(ctx context.Context, e *entry, target core.State) error {
	rec, err := p.tracker.PushState(ctx, e.patch.ID, target)
	if err != nil {
		return err
	}
	if !p.supersede(e, rec) {
		e.patch.SetState(target)
	}

	d := p.cfg.Delegate
	if d == nil || (e.patch.Delegate != nil && e.patch.Delegate.ID == d.ID) {
		return nil
	}
	rec, err = p.tracker.PushDelegate(ctx, e.patch.ID, d.ID)
	if err != nil {
		return err
	}
	if !p.supersede(e, rec) {
		e.patch.SetDelegate(d)
	}
	return nil
}

// supersede replaces the patch data with the record the tracker answered
// with. It reports false when there was no usable record.
func (p *pass) supersede(e *entry, rec patch.Record) bool {
	if rec.ID == 0 {
		return false
	}
	if err := e.patch.Supersede(rec); err != nil {
		p.logger.Warn("ignoring tracker record", "patch_id", e.patch.ID, "error", err)
		return false
	}
	return true
}

// finalize drops the commits that were not accepted and asks how to commit
// the rest.
func (p *pass) finalize(ctx context.Context, applied []*entry) error {
	var drop []string
	var accepted []*entry
	for _, e := range applied {
		if e.decision.Kind == core.Accept {
			accepted = append(accepted, e)
			continue
		}
		drop = append(drop, e.commit.ID)
	}

	if len(drop) > 0 {
		if err := p.repo.Drop(ctx, drop); err != nil {
			return err
		}
		for _, e := range applied {
			if e.decision.Kind == core.Accept {
				continue
			}
			e.commit = nil
			if e.decision.Kind == core.Skip {
				p.transition(e, StageSkipped)
			} else {
				p.transition(e, StageDecided)
			}
		}
	}
	if len(accepted) == 0 {
		return nil
	}

	p.refreshCommits(accepted)
	commits := p.repo.Applied()
	prompt := fmt.Sprintf("Commit %d patches", len(commits))
	if p.cfg.Branch != "" {
		prompt += " to " + p.cfg.Branch
	}
	ans, err := p.oracle.Decide(ctx, core.Question{
		Kind:    core.AskBatch,
		Choices: []core.Choice{core.ChoiceAll, core.ChoiceIndividually, core.ChoiceAbort},
		Commits: commits,
		Prompt:  prompt,
	})
	if err != nil {
		return err
	}

	switch ans.Choice {
	case core.ChoiceAll:
		if err := p.repo.CommitAll(ctx); err != nil {
			return err
		}
		for _, e := range accepted {
			p.transition(e, StageCommitted)
		}
	case core.ChoiceIndividually:
		return p.commitIndividually(ctx, accepted)
	case core.ChoiceAbort:
		return p.abortAll(ctx)
	default:
		return fmt.Errorf("unexpected answer %q to commit", ans.Choice)
	}
	p.logger.Info("patches committed", "count", len(accepted), "branch", p.cfg.Branch)
	return nil
}

func (p *pass) commitIndividually(ctx context.Context, accepted []*entry) error {
	byID := make(map[string]*entry, len(accepted))
	for _, e := range accepted {
		byID[e.commit.ID] = e
	}

	declined := make(map[*entry]bool)
	confirm := func(ctx context.Context, c core.Commit) (bool, error) {
		e, ok := byID[c.ID]
		if !ok {
			return false, fmt.Errorf("commit %s does not belong to this session", c.AbbrevID())
		}
		ans, err := p.oracle.Decide(ctx, core.Question{
			Kind:    core.AskCommit,
			Subject: e.patch.Subject(c.Oneline()),
			Choices: []core.Choice{core.ChoiceYes, core.ChoiceNo},
			Commits: []core.Commit{c},
		})
		if err != nil {
			return false, err
		}
		if ans.Choice != core.ChoiceYes {
			declined[e] = true
			return false, nil
		}
		return true, nil
	}

	if err := p.repo.CommitIndividually(ctx, confirm); err != nil {
		return err
	}
	for _, e := range accepted {
		if declined[e] {
			e.commit = nil
			p.transition(e, StageDecided)
			continue
		}
		p.transition(e, StageCommitted)
	}
	return nil
}

// abortAll pops every commit of the session, newest first, and marks every
// unfinished patch aborted.
func (p *pass) abortAll(ctx context.Context) error {
	for range p.repo.Applied() {
		if err := p.repo.PopTop(ctx); err != nil {
			return err
		}
	}
	for _, e := range p.entries {
		if e.stage.Terminal() {
			continue
		}
		e.commit = nil
		p.transition(e, StageAborted)
	}
	p.logger.Info("session aborted, applied patches removed")
	return nil
}

// refreshCommits picks up the current refs after an unwind re-applied
// commits.
func (p *pass) refreshCommits(entries []*entry) {
	byID := make(map[string]core.Commit)
	for _, c := range p.repo.Applied() {
		byID[c.ID] = c
	}
	for _, e := range entries {
		if e.commit == nil {
			continue
		}
		if c, ok := byID[e.commit.ID]; ok {
			e.commit = &c
		}
	}
}

// fatal stops the session. Commits still applied are left in place and
// reported pending.
func (p *pass) fatal(err error) error {
	applied := make(map[string]bool)
	for _, c := range p.repo.Applied() {
		applied[c.ID] = true
	}

	for _, e := range p.entries {
		if e.stage.Terminal() {
			continue
		}
		switch {
		case e.commit != nil && applied[e.commit.ID]:
			e.err = err
			p.transition(e, StagePending)
		case e == p.current:
			e.err = err
			p.transition(e, StageFailed)
		default:
			e.commit = nil
			p.transition(e, StageAborted)
		}
	}

	var attrs []any
	if e := p.current; e != nil {
		attrs = append(attrs, "patch_id", e.patch.ID, "title", e.patch.Title)
	}
	p.logger.Error("review stopped", append(attrs, "error", err)...)
	if len(applied) > 0 {
		p.logger.Warn("commits left applied", "count", len(applied), "branch", p.cfg.Branch)
	}
	return fmt.Errorf("review stopped: %w", err)
}

func (p *pass) report() core.Report {
	var r core.Report
	for _, e := range p.entries {
		o := core.Outcome{
			PatchID:     e.patch.ID,
			Title:       e.patch.Title,
			Status:      statusFor(e.stage),
			Decision:    e.decision,
			RemoteState: e.patch.State,
			Notified:    e.notified,
			Commit:      e.commit,
			Err:         e.err,
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	return r
}

func statusFor(stage Stage) core.Status {
	switch stage {
	case StageCommitted:
		return core.StatusCommitted
	case StageDecided:
		return core.StatusDecided
	case StageSkipped:
		return core.StatusSkipped
	case StageAborted:
		return core.StatusAborted
	case StageFailed:
		return core.StatusFailed
	default:
		return core.StatusPending
	}
}
