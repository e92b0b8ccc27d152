package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueAction describes a queued action in a transport-friendly format.
type QueueAction struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	RetryCount   int             `json:"retryCount"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	LastRetryAt  string          `json:"lastRetryAt,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// ConnectivityStatus summarizes the monitor's view of the backend.
type ConnectivityStatus struct {
	Online       bool   `json:"online"`
	WasOffline   bool   `json:"wasOffline"`
	Syncing      bool   `json:"syncing"`
	PendingCount int    `json:"pendingCount"`
	LastProbeAt  string `json:"lastProbeAt,omitempty"`
}

// CheckResult reports one preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Connectivity ConnectivityStatus `json:"connectivity"`
	QueueStats   map[string]int     `json:"queueStats"`
	Preflight    []CheckResult      `json:"preflight,omitempty"`
}

// QueueListResponse wraps a collection of actions for API responses.
type QueueListResponse struct {
	Actions []QueueAction `json:"actions"`
}

// QueueActionResponse wraps a single action.
type QueueActionResponse struct {
	Action QueueAction `json:"action"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// EnqueueRequest asks the daemon to persist a new action.
type EnqueueRequest struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// SyncResponse reports the outcome of a sync pass.
type SyncResponse struct {
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

// ClearResponse reports how many actions a clear or retry affected.
type ClearResponse struct {
	Affected int64 `json:"affected"`
}
