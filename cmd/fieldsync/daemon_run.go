package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/daemon"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the sync daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	executor, err := daemonExecutor(cfg)
	if err != nil {
		return err
	}
	q := queue.NewQueue(store, executor, logger)
	monitor := connectivity.NewMonitor(cfg, store, q, logger)

	d, err := daemon.New(cfg, store, q, monitor, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	d.Stop()
	logger.Info("fieldsync daemon shutting down")
	return nil
}

func daemonExecutor(cfg *config.Config) (queue.Executor, error) {
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return remote.Unconfigured(), nil
	}
	return remote.New(cfg.Remote.BaseURL, cfg.Remote.APIKey,
		remote.WithTimeout(time.Duration(cfg.Remote.TimeoutSeconds)*time.Second))
}
