package api

import (
	"fieldsync/internal/queue"
)

// FromAction converts a queue action into its transport DTO.
func FromAction(action *queue.Action) QueueAction {
	if action == nil {
		return QueueAction{}
	}
	dto := QueueAction{
		ID:           action.ID,
		Kind:         string(action.Kind),
		Status:       string(action.Status),
		ErrorMessage: action.ErrorMessage,
		RetryCount:   action.RetryCount,
		Payload:      action.Payload,
	}
	if !action.CreatedAt.IsZero() {
		dto.CreatedAt = action.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if action.LastRetryAt != nil {
		dto.LastRetryAt = action.LastRetryAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromActions converts a slice of queue actions into DTOs.
func FromActions(actions []*queue.Action) []QueueAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]QueueAction, 0, len(actions))
	for _, action := range actions {
		out = append(out, FromAction(action))
	}
	return out
}

// MergeQueueStats normalizes store stats into a string-keyed map that always
// carries every known status, so consumers render zeroes instead of gaps.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		merged[string(status)] = 0
	}
	for status, count := range stats {
		merged[string(status)] = count
	}
	return merged
}
