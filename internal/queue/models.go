package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a queued action.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusSyncing,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Kind identifies the remote operation an action maps to.
type Kind string

const (
	KindPhotoUpload Kind = "photo_upload"
	KindDailyReport Kind = "daily_report"
	KindAttendance  Kind = "attendance"
	KindSiteVisit   Kind = "site_visit"
)

var allKinds = []Kind{
	KindPhotoUpload,
	KindDailyReport,
	KindAttendance,
	KindSiteVisit,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// Action is a queued unit of work persisted in SQLite. Payload carries the
// kind-specific JSON document produced at capture time; the queue never
// interprets it beyond handing it to the executor.
type Action struct {
	ID           string
	Kind         Kind
	Payload      json.RawMessage
	Status       Status
	ErrorMessage string
	RetryCount   int
	CreatedAt    time.Time
	LastRetryAt  *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// AllKinds returns the ordered list of known action kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseKind converts a string into a known Kind. Hyphens are accepted in
// place of underscores so CLI spellings like "site-visit" resolve.
func ParseKind(value string) (Kind, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	if normalized == "" {
		return "", false
	}
	kind := Kind(normalized)
	_, ok := kindSet[kind]
	return kind, ok
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total   int
	Pending int
	Syncing int
	Failed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalActions     int
	Error            string
}
