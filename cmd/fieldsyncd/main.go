package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := buildDaemon(cfg, logger)
	if err != nil {
		logger.Error("initialize daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		_ = d.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	d.Stop()
	if err := d.Close(); err != nil {
		logger.Warn("close daemon", logging.Error(err))
	}
	logger.Info("fieldsyncd shut down")
}
