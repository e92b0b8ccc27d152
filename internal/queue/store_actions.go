package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Add persists a new action with status pending. The write completes before
// Add returns, so a crash immediately afterwards cannot lose the action.
func (s *Store) Add(ctx context.Context, kind Kind, payload json.RawMessage) (*Action, error) {
	if _, ok := kindSet[kind]; !ok {
		return nil, fmt.Errorf("add action: unknown kind %q", kind)
	}
	if len(payload) == 0 {
		return nil, errors.New("add action: payload is required")
	}

	now := time.Now().UTC()
	id := newActionID(now)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_actions (
            id, kind, payload, status, retry_count, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		kind,
		string(payload),
		StatusPending,
		0,
		now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert action: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an action by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Action, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM queue_actions WHERE id = ?`, id)
	action, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}
	return action, nil
}

// List returns actions filtered by status set (or all actions when no status
// is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Action, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + actionColumns + ` FROM queue_actions`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// Pending returns pending actions in creation order. Sync drains exactly
// this snapshot; actions added afterwards wait for the next pass.
func (s *Store) Pending(ctx context.Context) ([]*Action, error) {
	return s.List(ctx, StatusPending)
}

// PendingCount returns the number of actions awaiting sync.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_actions WHERE status = ?`, StatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending actions: %w", err)
	}
	return count, nil
}

// UpdateStatus transitions an action to a new lifecycle state. Moving into
// syncing increments the retry counter and stamps last_retry_at; moving into
// failed records the error message; moving back to pending clears it.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("update status: unknown status %q", status)
	}

	var (
		res sql.Result
		err error
	)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch status {
	case StatusSyncing:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE queue_actions
             SET status = ?, retry_count = retry_count + 1, last_retry_at = ?, error_message = NULL
             WHERE id = ?`,
			status, now, id,
		)
	case StatusFailed:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE queue_actions SET status = ?, error_message = ? WHERE id = ?`,
			status, nullableString(errorMessage), id,
		)
	default:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE queue_actions SET status = ?, error_message = NULL WHERE id = ?`,
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Remove deletes an action by identifier. An unknown id reports
// ErrNotFound. Successful sync removes the action entirely; there is no
// terminal "synced" state in the store.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_actions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Clear removes all actions from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_actions`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed actions from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_actions WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed actions back to pending so the next sync pass
// picks them up. With no ids, every failed action is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_actions SET status = ?, error_message = NULL WHERE status = ?`,
			StatusPending,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed actions: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE queue_actions SET status = ?, error_message = NULL
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected actions: %w", err)
	}
	return res.RowsAffected()
}
