// Package logging assembles the structured slog loggers used across
// fieldsync components.
//
// It centralizes level/format/output plumbing and exposes small attribute
// helpers plus standardized field keys so the daemon, queue, and monitors
// emit log lines with the same shape. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
