package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/feed"
	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/repository"
)

var disastersCmd = &cobra.Command{
	Use:   "disasters",
	Short: "Fetch the GDACS feed and list matching events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		windowFlag, _ := cmd.Flags().GetString("window")
		typ, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		window, err := feed.ParseTimeWindow(windowFlag)
		if err != nil {
			return err
		}

		db, err := repository.NewSQLiteDB(":memory:")
		if err != nil {
			return err
		}
		defer db.Close()

		svc := feed.NewService(gdacs.NewClient(fetch.NewClient(), cfg.Feed.GDACSURL), db, clockwork.NewRealClock(), nil, nil)
		if err := svc.Refresh(ctx); err != nil {
			return fmt.Errorf("fetch disasters: %w", err)
		}

		events, err := svc.Query(ctx, window, typ)
		if err != nil {
			return err
		}
		total, err := svc.Total(ctx)
		if err != nil {
			return err
		}
		if limit > 0 && len(events) > limit {
			events = events[:limit]
		}

		if asJSON {
			return writeJSON(os.Stdout, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No disasters match the selected filters.")
			return nil
		}
		formatDisasters(os.Stdout, events)
		fmt.Fprintf(os.Stderr, "Showing %d of %d events\n", len(events), total)
		return nil
	},
}

func formatDisasters(out io.Writer, events []models.DisasterEvent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tDATE\tLOCATION\tTITLE")
	for _, e := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Type, e.Severity, e.Date, e.Location, truncate(e.Title, 60))
	}
	w.Flush() //nolint:errcheck
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	disastersCmd.Flags().String("window", string(feed.DefaultWindow), "time window (1day, 1week, 1month, 1year)")
	disastersCmd.Flags().String("type", feed.TypeAll, "event type (Earthquake, Cyclone, Flood, Drought, Volcano, Disaster, all)")
	disastersCmd.Flags().Int("limit", 0, "max number of events to display (0 = all)")
	disastersCmd.Flags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(disastersCmd)
}
