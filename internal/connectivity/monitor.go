package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// Prober reports whether the backend is reachable right now.
type Prober func(ctx context.Context) bool

// Syncer drives a queue sync pass. *queue.Queue satisfies it.
type Syncer interface {
	Sync(ctx context.Context) (queue.SyncResult, error)
	Syncing() bool
}

// Status is a point-in-time snapshot of connectivity state.
type Status struct {
	Online       bool
	WasOffline   bool
	Syncing      bool
	PendingCount int
	LastProbeAt  time.Time
}

// Monitor owns the online/offline state machine. WasOffline latches when the
// backend becomes unreachable and clears only after a sync pass delivers at
// least one action, so the UI can surface "catching up" until the backlog
// actually moves.
type Monitor struct {
	cfg    *config.Config
	store  *queue.Store
	syncer Syncer
	logger *slog.Logger
	probe  Prober

	probeInterval  time.Duration
	probeTimeout   time.Duration
	refreshEvery   time.Duration
	probeRequested chan struct{}

	mu           sync.Mutex
	online       bool
	wasOffline   bool
	pendingCount int
	lastProbe    time.Time
	running      bool
	stop         chan struct{}

	netlink *netlinkMonitor
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProber overrides the default HTTP probe. Tests use it to simulate
// connectivity transitions.
func WithProber(probe Prober) Option {
	return func(m *Monitor) {
		if probe != nil {
			m.probe = probe
		}
	}
}

// NewMonitor builds a connectivity monitor bound to the queue.
func NewMonitor(cfg *config.Config, store *queue.Store, syncer Syncer, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:            cfg,
		store:          store,
		syncer:         syncer,
		logger:         logging.NewComponentLogger(logger, "connectivity"),
		probeInterval:  time.Duration(cfg.Connectivity.ProbeIntervalSeconds) * time.Second,
		probeTimeout:   time.Duration(cfg.Connectivity.ProbeTimeoutSeconds) * time.Second,
		refreshEvery:   time.Duration(cfg.Connectivity.PendingRefreshSeconds) * time.Second,
		probeRequested: make(chan struct{}, 1),
	}
	m.probe = m.httpProbe
	for _, opt := range opts {
		opt(m)
	}
	if cfg.Connectivity.NetlinkEvents {
		m.netlink = newNetlinkMonitor(logger, m.RequestProbe)
	}
	return m
}

// httpProbe issues a HEAD request against the configured health endpoint.
// Any response counts as reachable; only transport failures mean offline.
func (m *Monitor) httpProbe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, m.cfg.Connectivity.ProbeURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return true
}

// Start launches the poll loop. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	if m.netlink != nil {
		m.netlink.Start(ctx)
	}

	// The first probe runs before Start returns so callers observe a real
	// connectivity state, not the zero value.
	m.runProbe(ctx)
	m.refreshPending(ctx)

	go m.loop(ctx, stop)

	m.logger.Info("connectivity monitor started",
		logging.String(logging.FieldEventType, "connectivity_monitor_started"),
		logging.Duration("probe_interval", m.probeInterval),
	)
	return nil
}

// Stop halts the poll loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stop)
	m.stop = nil
	m.running = false

	if m.netlink != nil {
		m.netlink.Stop()
	}

	m.logger.Info("connectivity monitor stopped",
		logging.String(logging.FieldEventType, "connectivity_monitor_stopped"),
	)
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RequestProbe schedules an immediate probe ahead of the next tick. Safe to
// call from any goroutine; coalesces when a probe is already scheduled.
func (m *Monitor) RequestProbe() {
	select {
	case m.probeRequested <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop(ctx context.Context, stop <-chan struct{}) {
	probeTicker := time.NewTicker(m.probeInterval)
	defer probeTicker.Stop()
	refreshTicker := time.NewTicker(m.refreshEvery)
	defer refreshTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-probeTicker.C:
			m.runProbe(ctx)
		case <-m.probeRequested:
			m.runProbe(ctx)
		case <-refreshTicker.C:
			m.refreshPending(ctx)
		}
	}
}

func (m *Monitor) runProbe(ctx context.Context) {
	online := m.probe(ctx)
	m.SetOnline(ctx, online)
}

// SetOnline applies a connectivity observation. Any offline observation
// latches WasOffline, including a first probe that finds the backend
// unreachable; the online edge kicks off a sync pass.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	m.lastProbe = time.Now()
	if !online {
		m.wasOffline = true
	}
	m.mu.Unlock()

	switch {
	case !wasOnline && online:
		m.logger.Info("backend reachable",
			logging.String(logging.FieldEventType, "connectivity_online"),
		)
		m.syncNow(ctx)
	case wasOnline && !online:
		m.logger.Warn("backend unreachable",
			logging.String(logging.FieldEventType, "connectivity_offline"),
			logging.String(logging.FieldImpact, "captured actions will queue until connectivity returns"),
		)
	}
}

// TriggerSync runs a sync pass on demand. It is a no-op while offline or
// while another pass is running.
func (m *Monitor) TriggerSync(ctx context.Context) queue.SyncResult {
	m.mu.Lock()
	online := m.online
	m.mu.Unlock()
	if !online {
		m.logger.Debug("manual sync skipped while offline")
		return queue.SyncResult{Skipped: true}
	}
	return m.syncNow(ctx)
}

func (m *Monitor) syncNow(ctx context.Context) queue.SyncResult {
	result, err := m.syncer.Sync(ctx)
	if err != nil {
		m.logger.Warn("sync pass failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "actions remain queued and will retry"),
		)
	}
	if result.Succeeded > 0 {
		m.mu.Lock()
		m.wasOffline = false
		m.mu.Unlock()
	}
	m.refreshPending(ctx)
	return result
}

func (m *Monitor) refreshPending(ctx context.Context) {
	count, err := m.store.PendingCount(ctx)
	if err != nil {
		m.logger.Warn("refresh pending count", logging.Error(err))
		return
	}
	m.mu.Lock()
	m.pendingCount = count
	m.mu.Unlock()
}

// Status returns a snapshot of the current connectivity state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Online:       m.online,
		WasOffline:   m.wasOffline,
		Syncing:      m.syncer.Syncing(),
		PendingCount: m.pendingCount,
		LastProbeAt:  m.lastProbe,
	}
}
