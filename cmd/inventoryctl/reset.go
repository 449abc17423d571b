package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved inventory",
		Long: `reset removes the saved state from the configured store. The service
starts from the default building (or the layout file) on its next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the saved inventory without --yes")
			}

			rt, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Adapter.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved inventory deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}
