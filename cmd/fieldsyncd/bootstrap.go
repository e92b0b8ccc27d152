package main

import (
	"log/slog"
	"strings"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/daemon"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

func buildExecutor(cfg *config.Config, logger *slog.Logger) (queue.Executor, error) {
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return remote.Unconfigured(), nil
	}
	return remote.New(cfg.Remote.BaseURL, cfg.Remote.APIKey,
		remote.WithTimeout(time.Duration(cfg.Remote.TimeoutSeconds)*time.Second),
		remote.WithLogger(logger),
	)
}

func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}

	executor, err := buildExecutor(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	q := queue.NewQueue(store, executor, logger)
	monitor := connectivity.NewMonitor(cfg, store, q, logger)

	d, err := daemon.New(cfg, store, q, monitor, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}
