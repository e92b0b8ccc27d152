// Package queue implements the durable offline action queue.
//
// Captured actions (photo uploads, daily reports, attendance punches, site
// visits) are persisted to SQLite the moment they are created and survive
// restarts and crashes. A sync pass drains pending actions in creation order
// against a RemoteExecutor; successes are deleted, failures are kept with
// their error message for later retry. Sync is non-reentrant: a second call
// while one is running is a no-op.
package queue
