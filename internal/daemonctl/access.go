package daemonctl

import (
	"context"
	"encoding/json"
	"errors"

	"fieldsync/internal/api"
	"fieldsync/internal/queue"
)

// ErrSyncUnavailable indicates no sync backend is wired for direct store access.
var ErrSyncUnavailable = errors.New("sync requires a running daemon or a configured remote endpoint")

// Access provides queue operations regardless of API or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueAction, error)
	Describe(ctx context.Context, id string) (*api.QueueAction, error)
	Enqueue(ctx context.Context, kind queue.Kind, payload json.RawMessage) (*api.QueueAction, error)
	Remove(ctx context.Context, id string) (bool, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []string) (int64, error)
	Sync(ctx context.Context) (api.SyncResponse, error)
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access. The syncer may
// be nil, in which case Sync reports ErrSyncUnavailable.
func NewStoreAccess(store *queue.Store, syncer *queue.Queue) Access {
	return &storeAccess{store: store, syncer: syncer, service: api.NewQueueService(store)}
}

type apiAccess struct {
	client *Client
}

func (a *apiAccess) Stats(ctx context.Context) (map[string]int, error) {
	status, err := a.client.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.QueueStats, nil
}

func (a *apiAccess) List(ctx context.Context, statuses []string) ([]api.QueueAction, error) {
	return a.client.QueueList(ctx, statuses)
}

func (a *apiAccess) Describe(ctx context.Context, id string) (*api.QueueAction, error) {
	return a.client.QueueDescribe(ctx, id)
}

func (a *apiAccess) Enqueue(ctx context.Context, kind queue.Kind, payload json.RawMessage) (*api.QueueAction, error) {
	return a.client.Enqueue(ctx, string(kind), payload)
}

func (a *apiAccess) Remove(ctx context.Context, id string) (bool, error) {
	return a.client.QueueRemove(ctx, id)
}

func (a *apiAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.client.QueueClear(ctx, false)
}

func (a *apiAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.client.QueueClear(ctx, true)
}

func (a *apiAccess) Retry(ctx context.Context, ids []string) (int64, error) {
	return a.client.QueueRetry(ctx, ids)
}

func (a *apiAccess) Sync(ctx context.Context) (api.SyncResponse, error) {
	return a.client.Sync(ctx)
}

type storeAccess struct {
	store   *queue.Store
	syncer  *queue.Queue
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueAction, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id string) (*api.QueueAction, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Enqueue(ctx context.Context, kind queue.Kind, payload json.RawMessage) (*api.QueueAction, error) {
	action, err := a.store.Add(ctx, kind, payload)
	if err != nil {
		return nil, err
	}
	dto := api.FromAction(action)
	return &dto, nil
}

func (a *storeAccess) Remove(ctx context.Context, id string) (bool, error) {
	if err := a.store.Remove(ctx, id); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []string) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *storeAccess) Sync(ctx context.Context) (api.SyncResponse, error) {
	if a.syncer == nil {
		return api.SyncResponse{}, ErrSyncUnavailable
	}
	result, err := a.syncer.Sync(ctx)
	if err != nil {
		return api.SyncResponse{}, err
	}
	return api.SyncResponse{
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
	}, nil
}
