package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/contacts"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts [query]",
	Short: "List emergency helplines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := ""
		if len(args) == 1 {
			q = args[0]
		}
		list := contacts.Search(q)
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No contacts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SERVICE\tNUMBER\tDESCRIPTION")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Service, c.Number, c.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}
