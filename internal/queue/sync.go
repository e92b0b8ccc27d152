package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fieldsync/internal/logging"
)

// Executor performs the remote operation behind each action kind. The remote
// side is expected to deduplicate by idempotency key, so an action may be
// delivered more than once.
type Executor interface {
	UploadPhoto(ctx context.Context, actionID string, payload json.RawMessage) error
	SubmitDailyReport(ctx context.Context, actionID string, payload json.RawMessage) error
	RecordAttendance(ctx context.Context, actionID string, payload json.RawMessage) error
	CreateSiteVisit(ctx context.Context, actionID string, payload json.RawMessage) error
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   bool
}

// Queue couples the persistent store with a remote executor and drives the
// sync lifecycle.
type Queue struct {
	store   *Store
	exec    Executor
	logger  *slog.Logger
	syncing atomic.Bool
}

// NewQueue builds a Queue around an open store and executor.
func NewQueue(store *Store, exec Executor, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		store:  store,
		exec:   exec,
		logger: logger.With(logging.String(logging.FieldComponent, "queue")),
	}
}

// Store exposes the underlying store for inspection operations.
func (q *Queue) Store() *Store {
	return q.store
}

// Enqueue persists a new action and logs the admission.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, payload json.RawMessage) (*Action, error) {
	action, err := q.store.Add(ctx, kind, payload)
	if err != nil {
		return nil, err
	}
	q.logger.Info("action queued",
		logging.String(logging.FieldActionID, action.ID),
		logging.String(logging.FieldKind, string(action.Kind)),
	)
	return action, nil
}

// Syncing reports whether a sync pass is currently running.
func (q *Queue) Syncing() bool {
	return q.syncing.Load()
}

// Sync drains the pending snapshot sequentially, oldest first. Each action
// is isolated: a failure marks that action failed and the pass moves on.
// Only one pass runs at a time; a concurrent call returns a skipped result.
func (q *Queue) Sync(ctx context.Context) (SyncResult, error) {
	if !q.syncing.CompareAndSwap(false, true) {
		return SyncResult{Skipped: true}, nil
	}
	defer q.syncing.Store(false)

	pending, err := q.store.Pending(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load pending actions: %w", err)
	}
	if len(pending) == 0 {
		return SyncResult{}, nil
	}

	result := SyncResult{}
	q.logger.Info("sync started", logging.Int("pending", len(pending)))

	for _, action := range pending {
		if err := ctx.Err(); err != nil {
			q.logger.Warn("sync interrupted",
				logging.Int("remaining", len(pending)-result.Attempted),
				logging.Error(err),
			)
			return result, err
		}

		result.Attempted++
		if err := q.syncOne(ctx, action); err != nil {
			result.Failed++
			q.logger.Warn("action sync failed",
				logging.String(logging.FieldActionID, action.ID),
				logging.String(logging.FieldKind, string(action.Kind)),
				logging.Int("retry_count", action.RetryCount+1),
				logging.Error(err),
			)
			if markErr := q.store.UpdateStatus(ctx, action.ID, StatusFailed, err.Error()); markErr != nil {
				q.logger.Error("mark action failed",
					logging.String(logging.FieldActionID, action.ID),
					logging.Error(markErr),
				)
			}
			continue
		}

		result.Succeeded++
		if err := q.store.Remove(ctx, action.ID); err != nil {
			q.logger.Error("remove synced action",
				logging.String(logging.FieldActionID, action.ID),
				logging.Error(err),
			)
		}
	}

	q.logger.Info("sync finished",
		logging.Int("attempted", result.Attempted),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
	)
	return result, nil
}

func (q *Queue) syncOne(ctx context.Context, action *Action) error {
	if err := q.store.UpdateStatus(ctx, action.ID, StatusSyncing, ""); err != nil {
		return fmt.Errorf("mark syncing: %w", err)
	}

	switch action.Kind {
	case KindPhotoUpload:
		return q.exec.UploadPhoto(ctx, action.ID, action.Payload)
	case KindDailyReport:
		return q.exec.SubmitDailyReport(ctx, action.ID, action.Payload)
	case KindAttendance:
		return q.exec.RecordAttendance(ctx, action.ID, action.Payload)
	case KindSiteVisit:
		return q.exec.CreateSiteVisit(ctx, action.ID, action.Payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, action.Kind)
	}
}
