package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/daemonctl"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the offline action queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				stats, err := session.Access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				actions, err := session.Access.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"actions": actions})
				}
				if len(actions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Status", "Retries", "Created", "Error"},
					buildQueueListRows(actions),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by action status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <actionID>",
		Short: "Show a queued action in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				action, err := session.Access.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if action == nil {
					return fmt.Errorf("action %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, action)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", action.ID)
				fmt.Fprintf(out, "Kind:     %s\n", formatKindLabel(action.Kind))
				fmt.Fprintf(out, "Status:   %s\n", formatStatusLabel(action.Status))
				fmt.Fprintf(out, "Retries:  %d\n", action.RetryCount)
				fmt.Fprintf(out, "Created:  %s\n", formatDisplayTime(action.CreatedAt))
				if action.LastRetryAt != "" {
					fmt.Fprintf(out, "Last try: %s\n", formatDisplayTime(action.LastRetryAt))
				}
				if action.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", action.ErrorMessage)
				}
				if len(action.Payload) > 0 {
					fmt.Fprintf(out, "Payload:  %s\n", string(action.Payload))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [actionID...]",
		Short: "Reset failed actions back to pending",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				count, err := session.Access.Retry(cmd.Context(), args)
				if err != nil {
					return err
				}
				if len(args) > 0 && count == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching failed actions")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed actions\n", count)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <actionID>",
		Short: "Remove a queued action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				removed, err := session.Access.Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("action %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed action %s\n", args[0])
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queued actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearFailed && clearAll {
				return errors.New("specify only one of --failed or --all")
			}
			if !clearFailed && !clearAll {
				return errors.New("specify --failed or --all")
			}
			return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
				var (
					count int64
					err   error
					label string
				)
				if clearFailed {
					count, err = session.Access.ClearFailed(cmd.Context())
					label = "failed actions"
				} else {
					count, err = session.Access.ClearAll(cmd.Context())
					label = "queued actions"
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", count, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed actions")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every queued action")
	return cmd
}
