package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"fieldsync/internal/api"
	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	svc := api.NewQueueService(d.store)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:     bind,
		logger:   logger,
		daemon:   d,
		queueSvc: svc,
	}

	token := cfg.Paths.APIToken
	mux.HandleFunc("/api/status", srv.requireToken(token, srv.handleStatus))
	mux.HandleFunc("/api/queue", srv.requireToken(token, srv.handleQueue))
	mux.HandleFunc("/api/queue/", srv.requireToken(token, srv.handleQueueAction))
	mux.HandleFunc("/api/sync", srv.requireToken(token, srv.handleSync))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	checks := make([]api.CheckResult, 0, len(status.Preflight))
	for _, check := range status.Preflight {
		checks = append(checks, api.CheckResult{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Connectivity: api.ConnectivityStatus{
			Online:       status.Connectivity.Online,
			WasOffline:   status.Connectivity.WasOffline,
			Syncing:      status.Connectivity.Syncing,
			PendingCount: status.Connectivity.PendingCount,
			LastProbeAt:  formatProbeTime(status.Connectivity.LastProbeAt),
		},
		QueueStats: api.MergeQueueStats(status.QueueStats),
		Preflight:  checks,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func formatProbeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleQueueList(w, r)
	case http.MethodPost:
		s.handleQueueAdd(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleQueueList(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	actions, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Actions: actions})
}

func (s *apiServer) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, ok := queue.ParseKind(req.Kind)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", req.Kind))
		return
	}
	action, err := s.daemon.Enqueue(r.Context(), kind, req.Payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.QueueActionResponse{Action: api.FromAction(action)})
}

func (s *apiServer) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}

	if rest == "clear" {
		s.handleQueueClear(w, r)
		return
	}
	if rest == "retry" {
		s.handleQueueRetry(w, r, nil)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/retry"); ok {
		s.handleQueueRetry(w, r, []string{id})
		return
	}
	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleQueueDescribe(w, r, rest)
	case http.MethodDelete:
		s.handleQueueRemove(w, r, rest)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleQueueDescribe(w http.ResponseWriter, r *http.Request, id string) {
	action, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if action == nil {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueActionResponse{Action: *action})
}

func (s *apiServer) handleQueueRemove(w http.ResponseWriter, r *http.Request, id string) {
	removed, err := s.daemon.RemoveAction(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Affected: 1})
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request, ids []string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, err := s.daemon.RetryFailed(r.Context(), ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(ids) > 0 && count == 0 {
		s.writeError(w, http.StatusNotFound, "no failed action with that id")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Affected: count})
}

func (s *apiServer) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var (
		count int64
		err   error
	)
	if r.URL.Query().Get("failed") == "1" {
		count, err = s.daemon.ClearFailed(r.Context())
	} else {
		count, err = s.daemon.ClearQueue(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Affected: count})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result := s.daemon.Sync(r.Context())
	s.writeJSON(w, http.StatusOK, api.SyncResponse{
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
