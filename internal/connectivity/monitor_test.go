package connectivity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/connectivity"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

type fakeSyncer struct {
	mu     sync.Mutex
	calls  int
	result queue.SyncResult
}

func (f *fakeSyncer) Sync(ctx context.Context) (queue.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, nil
}

func (f *fakeSyncer) Syncing() bool { return false }

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSyncer) setResult(result queue.SyncResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
}

func newMonitor(t *testing.T, syncer connectivity.Syncer, probe connectivity.Prober) (*connectivity.Monitor, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	monitor := connectivity.NewMonitor(cfg, store, syncer, nil, connectivity.WithProber(probe))
	return monitor, store
}

func TestOnlineEdgeTriggersSync(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, _ := newMonitor(t, syncer, nil)

	ctx := context.Background()
	monitor.SetOnline(ctx, true)
	if syncer.callCount() != 1 {
		t.Fatalf("expected sync on online edge, got %d calls", syncer.callCount())
	}

	// Staying online is not an edge.
	monitor.SetOnline(ctx, true)
	if syncer.callCount() != 1 {
		t.Fatalf("expected no additional sync, got %d calls", syncer.callCount())
	}

	status := monitor.Status()
	if !status.Online {
		t.Fatal("expected online status")
	}
}

func TestWasOfflineLatchesUntilDelivery(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, _ := newMonitor(t, syncer, nil)

	ctx := context.Background()
	monitor.SetOnline(ctx, true)
	monitor.SetOnline(ctx, false)
	if status := monitor.Status(); !status.WasOffline {
		t.Fatal("expected WasOffline latched after going offline")
	}

	// Reconnect with nothing delivered: the latch stays.
	monitor.SetOnline(ctx, true)
	if status := monitor.Status(); !status.WasOffline {
		t.Fatal("expected WasOffline to persist until a delivery succeeds")
	}

	// A pass that delivers clears it.
	monitor.SetOnline(ctx, false)
	syncer.setResult(queue.SyncResult{Attempted: 1, Succeeded: 1})
	monitor.SetOnline(ctx, true)
	if status := monitor.Status(); status.WasOffline {
		t.Fatal("expected WasOffline cleared after successful delivery")
	}
}

func TestWasOfflineLatchesFromColdStart(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, _ := newMonitor(t, syncer, nil)

	// Device boots without connectivity: the very first observation is
	// offline and must still record the offline period.
	monitor.SetOnline(context.Background(), false)
	status := monitor.Status()
	if status.Online {
		t.Fatal("expected offline status")
	}
	if !status.WasOffline {
		t.Fatal("expected WasOffline latched when the first observation is offline")
	}

	// Reconnect with a delivery clears the latch as usual.
	syncer.setResult(queue.SyncResult{Attempted: 1, Succeeded: 1})
	monitor.SetOnline(context.Background(), true)
	if status := monitor.Status(); status.WasOffline {
		t.Fatal("expected WasOffline cleared after successful delivery")
	}
}

func TestTriggerSyncSkipsWhileOffline(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, _ := newMonitor(t, syncer, nil)

	result := monitor.TriggerSync(context.Background())
	if !result.Skipped {
		t.Fatal("expected manual sync to be skipped while offline")
	}
	if syncer.callCount() != 0 {
		t.Fatalf("expected no sync calls, got %d", syncer.callCount())
	}

	monitor.SetOnline(context.Background(), true)
	result = monitor.TriggerSync(context.Background())
	if result.Skipped {
		t.Fatal("expected manual sync to run while online")
	}
}

func TestStatusTracksPendingCount(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, store := newMonitor(t, syncer, nil)

	testsupport.NewAction(t, store, queue.KindAttendance, map[string]string{"worker": "a"})
	testsupport.NewAction(t, store, queue.KindAttendance, map[string]string{"worker": "b"})

	// SetOnline refreshes the pending count through the sync path.
	monitor.SetOnline(context.Background(), true)
	if status := monitor.Status(); status.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", status.PendingCount)
	}
}

func TestStartProbesBeforeReturning(t *testing.T) {
	syncer := &fakeSyncer{}
	monitor, _ := newMonitor(t, syncer, func(ctx context.Context) bool { return true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	// No sleep: the first probe completes inside Start, so a sync
	// triggered right after startup must not be skipped as offline.
	if status := monitor.Status(); !status.Online {
		t.Fatal("expected online status immediately after Start")
	}
	if result := monitor.TriggerSync(ctx); result.Skipped {
		t.Fatal("expected manual sync to run right after Start")
	}
}

func TestStartRunsInitialProbe(t *testing.T) {
	syncer := &fakeSyncer{}
	probed := make(chan struct{}, 8)
	monitor, _ := newMonitor(t, syncer, func(ctx context.Context) bool {
		select {
		case probed <- struct{}{}:
		default:
		}
		return true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an initial probe after Start")
	}

	if !monitor.Running() {
		t.Fatal("expected monitor running")
	}

	// An immediate probe can be requested ahead of the next tick.
	monitor.RequestProbe()
	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected requested probe to run")
	}

	monitor.Stop()
	if monitor.Running() {
		t.Fatal("expected monitor stopped")
	}
}
