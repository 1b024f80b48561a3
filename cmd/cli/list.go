package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/internal/util"
	"github.com/sevigo/patch-warden/internal/wire"
)

const defaultWidth = 100

var (
	outputJSON bool
	listStates []string
	listWidth  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the patches of the project waiting for review",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		states, err := normalizeStates(listStates)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateTracker(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		app, cleanup, err := wire.InitializeApp(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		patches, err := app.List(ctx, states)
		var incomplete *patchwork.IncompleteFetchError
		if err != nil && !errors.As(err, &incomplete) {
			return fmt.Errorf("failed to list patches: %w", err)
		}

		if outputJSON {
			records := make([]patch.Record, 0, len(patches))
			for _, p := range patches {
				records = append(records, p.Record())
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if encErr := encoder.Encode(records); encErr != nil {
				return encErr
			}
			return err
		}

		if len(patches) == 0 {
			slog.Info("No patches are waiting for review.")
			return nil
		}
		if printErr := printPatches(os.Stdout, patches, time.Now(), terminalWidth()); printErr != nil {
			return printErr
		}
		if incomplete != nil {
			warnColor.Fprintf(os.Stderr, "listing incomplete: %v\n", incomplete.Err)
		}
		return err
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	listCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringSliceVar(&listStates, "state", nil, "states to list (default from review.states)")
	listCmd.Flags().IntVar(&listWidth, "width", 0, "output width (default $COLUMNS)")
	rootCmd.AddCommand(listCmd)
}

func terminalWidth() int {
	if listWidth > 0 {
		return listWidth
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return defaultWidth
}

func printPatches(out io.Writer, patches []*patch.Patch, now time.Time, width int) error {
	// id, age, state and delegate take about this much of the line
	titleWidth := width - 50
	if titleWidth < 20 {
		titleWidth = 20
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGE\tSTATE\tDELEGATE\tTITLE")
	for _, p := range patches {
		delegate := p.DelegateName()
		if delegate == "" {
			delegate = "-"
		}
		age := "-"
		if !p.Date.IsZero() {
			age = util.Age(now, p.Date)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID,
			age,
			p.State,
			util.Shrink(delegate, 12, true),
			util.Shrink(p.Title, titleWidth, true),
		)
	}
	return w.Flush()
}
