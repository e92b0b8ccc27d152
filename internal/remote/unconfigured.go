package remote

import (
	"context"
	"encoding/json"
	"errors"

	"fieldsync/internal/queue"
)

// ErrNotConfigured indicates no remote endpoint is set in the configuration.
var ErrNotConfigured = errors.New("remote.base_url is not configured")

type unconfigured struct{}

// Unconfigured returns an executor that fails every action with
// ErrNotConfigured. It lets the daemon run, capture, and queue actions before
// a remote endpoint has been configured.
func Unconfigured() queue.Executor {
	return unconfigured{}
}

func (unconfigured) UploadPhoto(context.Context, string, json.RawMessage) error {
	return ErrNotConfigured
}

func (unconfigured) SubmitDailyReport(context.Context, string, json.RawMessage) error {
	return ErrNotConfigured
}

func (unconfigured) RecordAttendance(context.Context, string, json.RawMessage) error {
	return ErrNotConfigured
}

func (unconfigured) CreateSiteVisit(context.Context, string, json.RawMessage) error {
	return ErrNotConfigured
}
