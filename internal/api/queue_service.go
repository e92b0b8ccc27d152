package api

import (
	"context"
	"errors"

	"fieldsync/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Action, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id string) (*queue.Action, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queued actions filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueAction, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	actions, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromActions(actions), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single action. A missing id yields (nil, nil).
func (s *QueueService) Describe(ctx context.Context, id string) (*QueueAction, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	action, err := s.store.GetByID(ctx, id)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dto := FromAction(action)
	return &dto, nil
}
