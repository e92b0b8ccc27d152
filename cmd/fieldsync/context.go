package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/daemonctl"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openSession connects to the daemon API when one is running, otherwise it
// opens the queue store directly.
func (c *commandContext) openSession(ctx context.Context) (daemonctl.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return daemonctl.Session{}, err
	}
	return daemonctl.OpenWithFallback(
		func() (*daemonctl.Client, error) { return daemonctl.Dial(ctx, cfg) },
		func() (*queue.Store, *queue.Queue, error) { return openDirectStore(cfg) },
	)
}

// openDirectStore opens the queue database and, when a remote endpoint is
// configured, a syncer so `fieldsync sync` works without the daemon.
func openDirectStore(cfg *config.Config) (*queue.Store, *queue.Queue, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return store, nil, nil
	}
	client, err := remote.New(cfg.Remote.BaseURL, cfg.Remote.APIKey,
		remote.WithTimeout(time.Duration(cfg.Remote.TimeoutSeconds)*time.Second))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, queue.NewQueue(store, client, nil), nil
}

func (c *commandContext) withSession(ctx context.Context, fn func(daemonctl.Session) error) error {
	session, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}
