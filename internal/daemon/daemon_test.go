package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"fieldsync/internal/api"
	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/daemon"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

type stubExecutor struct {
	err error
}

func (s *stubExecutor) UploadPhoto(ctx context.Context, actionID string, _ json.RawMessage) error {
	return s.err
}

func (s *stubExecutor) SubmitDailyReport(ctx context.Context, actionID string, _ json.RawMessage) error {
	return s.err
}

func (s *stubExecutor) RecordAttendance(ctx context.Context, actionID string, _ json.RawMessage) error {
	return s.err
}

func (s *stubExecutor) CreateSiteVisit(ctx context.Context, actionID string, _ json.RawMessage) error {
	return s.err
}

type harness struct {
	cfg    *config.Config
	store  *queue.Store
	daemon *daemon.Daemon
	base   string
}

func newHarness(t *testing.T, exec queue.Executor, online bool) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	q := queue.NewQueue(store, exec, nil)
	monitor := connectivity.NewMonitor(cfg, store, q, nil,
		connectivity.WithProber(func(ctx context.Context) bool { return online }))

	d, err := daemon.New(cfg, store, q, monitor, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &harness{
		cfg:    cfg,
		store:  store,
		daemon: d,
		base:   "http://" + d.APIAddr(),
	}
}

func (h *harness) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.base+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	h := newHarness(t, &stubExecutor{}, true)

	q := queue.NewQueue(h.store, &stubExecutor{}, nil)
	monitor := connectivity.NewMonitor(h.cfg, h.store, q, nil,
		connectivity.WithProber(func(ctx context.Context) bool { return true }))
	second, err := daemon.New(h.cfg, h.store, q, monitor, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second daemon start to fail while lock is held")
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newHarness(t, &stubExecutor{}, true)

	resp := h.request(t, http.MethodGet, "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code %d", resp.StatusCode)
	}
	status := decode[api.DaemonStatus](t, resp)
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected paths populated: %#v", status)
	}
	if _, ok := status.QueueStats["pending"]; !ok {
		t.Fatal("expected pending stat present")
	}
}

func TestQueueEndpoints(t *testing.T) {
	h := newHarness(t, &stubExecutor{}, false)

	// Enqueue through the API.
	resp := h.request(t, http.MethodPost, "/api/queue", api.EnqueueRequest{
		Kind:    "attendance",
		Payload: json.RawMessage(`{"worker":"w1"}`),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status code %d", resp.StatusCode)
	}
	created := decode[api.QueueActionResponse](t, resp)
	if created.Action.ID == "" || created.Action.Status != "pending" {
		t.Fatalf("unexpected created action: %#v", created.Action)
	}

	// List it back.
	resp = h.request(t, http.MethodGet, "/api/queue?status=pending", nil)
	listed := decode[api.QueueListResponse](t, resp)
	if len(listed.Actions) != 1 || listed.Actions[0].ID != created.Action.ID {
		t.Fatalf("unexpected listing: %#v", listed)
	}

	// Describe.
	resp = h.request(t, http.MethodGet, "/api/queue/"+created.Action.ID, nil)
	described := decode[api.QueueActionResponse](t, resp)
	if described.Action.Kind != "attendance" {
		t.Fatalf("unexpected action: %#v", described.Action)
	}

	// Unknown id is a 404.
	resp = h.request(t, http.MethodGet, "/api/queue/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// Unknown status filter is a 400.
	resp = h.request(t, http.MethodGet, "/api/queue?status=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Remove.
	resp = h.request(t, http.MethodDelete, "/api/queue/"+created.Action.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = h.request(t, http.MethodDelete, "/api/queue/"+created.Action.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestRetryAndClearEndpoints(t *testing.T) {
	h := newHarness(t, &stubExecutor{}, false)

	ctx := context.Background()
	var failedIDs []string
	for i := 0; i < 2; i++ {
		action := testsupport.NewAction(t, h.store, queue.KindDailyReport, map[string]int{"day": i})
		if err := h.store.UpdateStatus(ctx, action.ID, queue.StatusFailed, fmt.Sprintf("err %d", i)); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		failedIDs = append(failedIDs, action.ID)
	}

	resp := h.request(t, http.MethodPost, "/api/queue/"+failedIDs[0]+"/retry", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	retried := decode[api.ClearResponse](t, resp)
	if retried.Affected != 1 {
		t.Fatalf("expected 1 retried, got %d", retried.Affected)
	}

	// Retrying a pending action is a 404.
	resp = h.request(t, http.MethodPost, "/api/queue/"+failedIDs[0]+"/retry", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// Clear only failed.
	resp = h.request(t, http.MethodPost, "/api/queue/clear?failed=1", nil)
	cleared := decode[api.ClearResponse](t, resp)
	if cleared.Affected != 1 {
		t.Fatalf("expected 1 failed cleared, got %d", cleared.Affected)
	}

	// Clear everything.
	resp = h.request(t, http.MethodPost, "/api/queue/clear", nil)
	cleared = decode[api.ClearResponse](t, resp)
	if cleared.Affected != 1 {
		t.Fatalf("expected 1 remaining cleared, got %d", cleared.Affected)
	}
}

func TestSyncEndpoint(t *testing.T) {
	h := newHarness(t, &stubExecutor{}, true)

	testsupport.NewAction(t, h.store, queue.KindAttendance, map[string]string{"worker": "w"})

	resp := h.request(t, http.MethodPost, "/api/sync", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decode[api.SyncResponse](t, resp)
	if result.Skipped {
		t.Fatal("expected sync to run while online")
	}
}

func TestAPIAuthToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret"
	store := testsupport.MustOpenStore(t, cfg)
	q := queue.NewQueue(store, &stubExecutor{}, nil)
	monitor := connectivity.NewMonitor(cfg, store, q, nil,
		connectivity.WithProber(func(ctx context.Context) bool { return false }))
	d, err := daemon.New(cfg, store, q, monitor, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()
	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}
