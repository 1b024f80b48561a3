package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/internal/wire"
)

var eventsCmd = &cobra.Command{
	Use:   "events ID",
	Short: "Shows the tracker event log of a patch",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid patch id %q", args[0])
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

		events, err := app.Events(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to retrieve events: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(events)
		}
		return printEvents(os.Stdout, events)
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	eventsCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(eventsCmd)
}

func printEvents(out io.Writer, events []patchwork.Event) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tACTOR\tDETAILS")
	for _, e := range events {
		actor := "-"
		if e.Actor != nil {
			actor = e.Actor.Username
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Date, e.Category, actor, eventDetails(e))
	}
	return w.Flush()
}

// eventDetails summarizes the payload of the state and delegate changes.
func eventDetails(e patchwork.Event) string {
	var payload struct {
		PreviousState    string `json:"previous_state"`
		CurrentState     string `json:"current_state"`
		PreviousDelegate *struct {
			Username string `json:"username"`
		} `json:"previous_delegate"`
		CurrentDelegate *struct {
			Username string `json:"username"`
		} `json:"current_delegate"`
	}
	if len(e.Payload) == 0 || json.Unmarshal(e.Payload, &payload) != nil {
		return ""
	}

	switch {
	case payload.CurrentState != "":
		return payload.PreviousState + " -> " + payload.CurrentState
	case payload.CurrentDelegate != nil:
		from := "-"
		if payload.PreviousDelegate != nil {
			from = payload.PreviousDelegate.Username
		}
		return from + " -> " + payload.CurrentDelegate.Username
	default:
		return ""
	}
}
