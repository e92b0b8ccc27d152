package queue

import "errors"

// ErrNotFound indicates the referenced action does not exist in the store.
var ErrNotFound = errors.New("action not found")

// ErrUnknownKind indicates an action kind no executor operation maps to.
// Actions carrying one are marked failed during sync instead of being
// silently dropped; at-least-once delivery still holds for the rest.
var ErrUnknownKind = errors.New("unknown action kind")
