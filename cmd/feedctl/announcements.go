package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/announcement"
	"github.com/mr1hm/resqlink/internal/models"
)

var announcementsCmd = &cobra.Command{
	Use:     "announcements",
	Aliases: []string{"ann"},
	Short:   "Manage the announcement board",
}

// -- announcements list --

var announcementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List announcements",
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := newBackendClient().ListAnnouncements(cmd.Context())
		if err != nil {
			return fmt.Errorf("load announcements: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No announcements.")
			return nil
		}
		formatAnnouncements(os.Stdout, list)
		return nil
	},
}

// -- announcements create --

var announcementsCreateCmd = &cobra.Command{
	Use:   "create <content>",
	Short: "Broadcast a new announcement",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newBackendClient().CreateAnnouncement(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Announcement created successfully! (id %s)\n", a.ID)
		return nil
	},
}

// -- announcements edit --

var announcementsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replace the content of an announcement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newBackendClient()
		content, _ := cmd.Flags().GetString("content")

		list, err := client.ListAnnouncements(ctx)
		if err != nil {
			return fmt.Errorf("load announcements: %w", err)
		}
		current, ok := findAnnouncement(list, args[0])
		if !ok {
			return fmt.Errorf("announcement %s not found", args[0])
		}

		editor := announcement.NewEditor()
		if err := editor.Begin(current.ID, current.Content); err != nil {
			return err
		}
		if err := editor.SetDraft(content); err != nil {
			return err
		}
		id, draft, err := editor.Commit()
		if err != nil {
			return err
		}

		updated, err := client.UpdateAnnouncement(ctx, id, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Announcement updated successfully!\n%s\n", updated.Content)
		return nil
	},
}

// -- announcements delete --

var announcementsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an announcement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newBackendClient().DeleteAnnouncement(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Announcement deleted successfully!")
		return nil
	},
}

func findAnnouncement(list []models.Announcement, id string) (models.Announcement, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return models.Announcement{}, false
}

func formatAnnouncements(out io.Writer, list []models.Announcement) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tIMPORTANT\tCONTENT")
	for _, a := range list {
		important := ""
		if a.IsImportant {
			important = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.CreatedAt, important, truncate(a.Content, 80))
	}
	w.Flush() //nolint:errcheck
}

func init() {
	announcementsEditCmd.Flags().String("content", "", "new announcement text")
	_ = announcementsEditCmd.MarkFlagRequired("content")

	announcementsCmd.AddCommand(announcementsListCmd)
	announcementsCmd.AddCommand(announcementsCreateCmd)
	announcementsCmd.AddCommand(announcementsEditCmd)
	announcementsCmd.AddCommand(announcementsDeleteCmd)
	rootCmd.AddCommand(announcementsCmd)
}
