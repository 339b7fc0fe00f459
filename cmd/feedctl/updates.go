package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/livefeed"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Show the live SOS updates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")
		asJSON, _ := cmd.Flags().GetBool("json")

		client := newBackendClient()

		if !watch {
			raws, err := client.ListSOSMessages(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", livefeed.ErrorMessage, err)
			}
			views := livefeed.NewViews(livefeed.ValidateAll(raws, time.Now()))
			if asJSON {
				return writeJSON(os.Stdout, views)
			}
			formatUpdates(os.Stdout, views)
			return nil
		}

		clock := clockwork.NewRealClock()
		poller := livefeed.NewPoller(client, clock, interval, nil)
		poller.Start(ctx)
		defer poller.Stop()

		// Print whenever the poller applied a new list or its error changed.
		ticker := clock.NewTicker(time.Second)
		defer ticker.Stop()
		var lastPrinted time.Time
		var lastErr string
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
				snap := poller.Snapshot()
				if snap.Error != "" && snap.Error != lastErr {
					fmt.Fprintln(os.Stderr, snap.Error)
				}
				lastErr = snap.Error
				if snap.LastUpdated.After(lastPrinted) {
					lastPrinted = snap.LastUpdated
					fmt.Fprintf(os.Stdout, "\n-- %s --\n", snap.LastUpdated.Format(time.TimeOnly))
					formatUpdates(os.Stdout, livefeed.NewViews(snap.Updates))
				}
			}
		}
	},
}

func formatUpdates(out io.Writer, views []livefeed.View) {
	if len(views) == 0 {
		fmt.Fprintln(out, "No updates.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tLOCATION\tCONTACT\tDETAILS")
	for _, v := range views {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.DisplayType, v.Status, v.DisplayLocation, v.MobileNumber, truncate(v.Details, 60))
	}
	w.Flush() //nolint:errcheck
}

func init() {
	updatesCmd.Flags().Bool("watch", false, "keep polling and print each new list")
	updatesCmd.Flags().Duration("interval", livefeed.DefaultInterval, "poll interval with --watch")
	updatesCmd.Flags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(updatesCmd)
}
