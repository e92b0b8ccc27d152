package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const actionColumns = "id, kind, payload, status, error_message, retry_count, created_at, last_retry_at"

func scanAction(scanner interface{ Scan(dest ...any) error }) (*Action, error) {
	var (
		id           string
		kindStr      string
		payload      string
		statusStr    string
		errorMessage sql.NullString
		retryCount   sql.NullInt64
		createdRaw   sql.NullString
		lastRetryRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&kindStr,
		&payload,
		&statusStr,
		&errorMessage,
		&retryCount,
		&createdRaw,
		&lastRetryRaw,
	); err != nil {
		return nil, err
	}

	action := &Action{
		ID:           id,
		Kind:         Kind(kindStr),
		Payload:      json.RawMessage(payload),
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		RetryCount:   int(retryCount.Int64),
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		action.CreatedAt = created
	}
	if lastRetryRaw.Valid {
		if lastRetry, err := parseTimeString(lastRetryRaw.String); err == nil {
			action.LastRetryAt = &lastRetry
		}
	}
	return action, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
