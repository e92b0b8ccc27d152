package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/preflight"
	"fieldsync/internal/queue"
)

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	queue   *queue.Queue
	monitor *connectivity.Monitor

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	checks []preflight.Result
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Connectivity connectivity.Status
	QueueStats   map[queue.Status]int
	Preflight    []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, q *queue.Queue, monitor *connectivity.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || q == nil || monitor == nil {
		return nil, errors.New("daemon requires config, store, queue, and connectivity monitor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "fieldsyncd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		queue:    q,
		monitor:  monitor,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted work, and launches
// the connectivity monitor and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldsync daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	recovered, err := d.store.RecoverInterrupted(d.ctx)
	if err != nil {
		d.releaseStart()
		return fmt.Errorf("recover interrupted actions: %w", err)
	}
	if recovered > 0 {
		d.logger.Info("recovered interrupted actions", logging.Int64("count", recovered))
	}

	d.checks = preflight.RunAll(d.ctx, d.cfg)
	for _, check := range d.checks {
		if check.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	if err := d.monitor.Start(d.ctx); err != nil {
		d.releaseStart()
		return fmt.Errorf("start connectivity monitor: %w", err)
	}

	if err := d.api.start(d.ctx); err != nil {
		d.monitor.Stop()
		d.releaseStart()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("fieldsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("fieldsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, empty when the server is not running.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Enqueue persists a new action through the queue.
func (d *Daemon) Enqueue(ctx context.Context, kind queue.Kind, payload json.RawMessage) (*queue.Action, error) {
	return d.queue.Enqueue(ctx, kind, payload)
}

// ListQueue returns actions filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Action, error) {
	return d.store.List(ctx, statuses...)
}

// RemoveAction deletes an action by identifier. An unknown id reports
// false without error so the API layer can answer 404.
func (d *Daemon) RemoveAction(ctx context.Context, id string) (bool, error) {
	if err := d.store.Remove(ctx, id); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClearQueue removes all actions.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearFailed removes only failed actions.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RetryFailed resets failed actions (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []string) (int64, error) {
	count, err := d.store.RetryFailed(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		d.monitor.RequestProbe()
	}
	return count, nil
}

// Sync runs a manual sync pass through the connectivity monitor.
func (d *Daemon) Sync(ctx context.Context) queue.SyncResult {
	return d.monitor.TriggerSync(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("queue stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Connectivity: d.monitor.Status(),
		QueueStats:   stats,
		Preflight:    d.checks,
	}
}
