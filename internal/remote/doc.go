// Package remote implements the HTTP executor that delivers queued actions
// to the field-data backend. Every request carries the action identifier as
// an Idempotency-Key header so retried deliveries deduplicate server-side.
package remote
