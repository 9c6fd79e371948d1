package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsedCmd(st *cliState) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "used <id>",
		Short: "Mark a bundle as used (or not, with --unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := st.services.Store.SetUsed(cmd.Context(), args[0], !unset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s used=%t\n", b.ID, b.Used)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "clear the used flag instead of setting it")
	return cmd
}
