package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"fieldsync/internal/api"
	"fieldsync/internal/daemonctl"
	"fieldsync/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, connectivity, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := collectStatus(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

// collectStatus asks the daemon for its snapshot, falling back to direct
// queue stats when no daemon is running.
func collectStatus(cmdCtx context.Context, ctx *commandContext) (*api.DaemonStatus, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	if client, err := daemonctl.Dial(cmdCtx, cfg); err == nil {
		defer client.Close()
		return client.Status(cmdCtx)
	}

	status := &api.DaemonStatus{
		QueueDBPath: cfg.QueueDBPath(),
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	stats, err := store.Stats(cmdCtx)
	if err != nil {
		return nil, err
	}
	status.QueueStats = api.MergeQueueStats(stats)
	return status, nil
}

func printStatus(out io.Writer, status *api.DaemonStatus) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
		onlineKind := statusWarn
		onlineText := "Offline"
		if status.Connectivity.Online {
			onlineKind = statusOK
			onlineText = "Online"
		}
		fmt.Fprintln(out, renderStatusLine("Connectivity", onlineKind, onlineText, colorize))
		fmt.Fprintln(out, renderStatusLine("Syncing", statusInfo, yesNo(status.Connectivity.Syncing), colorize))
		if status.Connectivity.LastProbeAt != "" {
			fmt.Fprintln(out, renderStatusLine("Last probe", statusInfo, formatDisplayTime(status.Connectivity.LastProbeAt), colorize))
		}
		for _, check := range status.Preflight {
			kind := statusOK
			if !check.Passed {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Not running (start with `fieldsyncd`)", colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	keys := make([]string, 0, len(status.QueueStats))
	for key := range status.QueueStats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		kind := statusInfo
		if key == "failed" && status.QueueStats[key] > 0 {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(formatStatusLabel(key), kind, fmt.Sprintf("%d", status.QueueStats[key]), colorize))
	}
}
