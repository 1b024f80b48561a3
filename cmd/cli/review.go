package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/util"
	"github.com/sevigo/patch-warden/internal/wire"
)

// errNeedsAttention is returned when some patches ended failed or pending.
var errNeedsAttention = errors.New("some patches need attention")

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewStates []string

var reviewCmd = &cobra.Command{
	Use:   "review [IDS]",
	Short: "Review patches: apply, decide, reply and update the tracker",
	Long: `Review patches from the tracker.

Without IDS every patch of the project in the review states is taken. IDS is
a comma separated list of ids and ranges.

The patches are applied to the pending branch one by one. For every applied
patch a decision is asked; replies are sent to the submitter and the tracker
state is updated. Accepted patches are committed at the end.

Examples:
  patch-warden review
  patch-warden review 11520-11523,11530
  patch-warden review --series --state new --backend stgit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringSliceVar(&reviewStates, "state", nil, "states to review (default from review.states)")
	reviewCmd.Flags().Bool("series", false, "review the patches of a series together")
	reviewCmd.Flags().Bool("dry-run", false, "check that patches apply without changing the repository")
	reviewCmd.Flags().String("backend", "", "patch stack back-end: git or stgit")
	reviewCmd.Flags().Bool("censor", false, "use a fixed date in generated mboxes")
	_ = reviewCmd.Flags().MarkHidden("censor")

	mustBindFlags(reviewCmd, false, map[string]string{
		"review.series": "series",
		"git.dry_run":   "dry-run",
		"git.backend":   "backend",
		"review.censor": "censor",
	})
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var ids []int
	if len(args) == 1 {
		var err error
		if ids, err = util.ParseList(args[0]); err != nil {
			return err
		}
	}
	states, err := normalizeStates(reviewStates)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	report, err := appInstance.Review(ctx, ids, states)
	if len(report.Outcomes) > 0 {
		printReport(os.Stdout, report)
	}
	if err != nil {
		return err
	}
	if report.ExitCode() != 0 {
		return errNeedsAttention
	}
	return nil
}

func normalizeStates(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		state, err := core.ParseState(s)
		if err != nil {
			return nil, err
		}
		out = append(out, string(state))
	}
	return out, nil
}

func statusColor(s core.Status) *color.Color {
	switch s {
	case core.StatusCommitted:
		return successColor
	case core.StatusDecided:
		return titleColor
	case core.StatusSkipped:
		return dimColor
	case core.StatusAborted:
		return warnColor
	default:
		return errorColor
	}
}

func printReport(w io.Writer, report core.Report) {
	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Review summary")
	fmt.Fprintln(w, strings.Repeat("-", 40))

	for _, o := range report.Outcomes {
		statusColor(o.Status).Fprintf(w, "%-10s", o.Status)
		boldColor.Fprintf(w, " [%d]", o.PatchID)
		fmt.Fprintf(w, " %s\n", util.Shrink(o.Title, 60, true))

		var details []string
		if o.Decision.Kind != "" {
			details = append(details, "decision: "+o.Decision.String())
		}
		if o.RemoteState != "" {
			details = append(details, "state: "+string(o.RemoteState))
		}
		if o.Notified {
			details = append(details, "replied")
		}
		if len(details) > 0 {
			dimColor.Fprintf(w, "           %s\n", strings.Join(details, ", "))
		}
		if o.Commit != nil {
			dimColor.Fprintf(w, "           %s\n", o.Commit.Oneline())
		}
		if o.Err != nil {
			errorColor.Fprintf(w, "           error: %v\n", o.Err)
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "%d committed, %d decided, %d skipped, %d aborted, %d pending, %d failed\n",
		report.Count(core.StatusCommitted),
		report.Count(core.StatusDecided),
		report.Count(core.StatusSkipped),
		report.Count(core.StatusAborted),
		report.Count(core.StatusPending),
		report.Count(core.StatusFailed))
}
