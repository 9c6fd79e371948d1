package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"promptsmith/internal/domain"
)

func newListCmd(st *cliState) *cobra.Command {
	var (
		filter  domain.BundleFilter
		asJSON  bool
		preview int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored bundles, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := st.services.Store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"bundles": bundles})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSETTING\tUSED\tCREATED\tPROMPT")
			for _, b := range bundles {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n",
					b.ID, b.SettingID, b.Used, b.CreatedAt.Format("2006-01-02 15:04"), truncate(b.ImagePrompt.FinalPrompt, preview))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&filter.Limit, "limit", "l", 20, "maximum bundles to show (0 for all)")
	cmd.Flags().BoolVar(&filter.UnusedOnly, "unused", false, "only bundles not yet marked used")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full bundles as JSON")
	cmd.Flags().IntVar(&preview, "preview", 60, "prompt preview length in characters")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
