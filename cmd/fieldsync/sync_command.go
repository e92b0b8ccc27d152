package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/daemonctl"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Deliver pending actions to the remote service now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				result, err := session.Access.Sync(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.Skipped {
					fmt.Fprintln(out, "Sync skipped (offline or already in progress)")
					return nil
				}
				if result.Attempted == 0 {
					fmt.Fprintln(out, "Nothing to sync")
					return nil
				}
				fmt.Fprintf(out, "Synced %d of %d actions", result.Succeeded, result.Attempted)
				if result.Failed > 0 {
					fmt.Fprintf(out, " (%d failed; see `fieldsync queue list -s failed`)", result.Failed)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}
