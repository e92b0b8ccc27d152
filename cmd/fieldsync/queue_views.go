package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fieldsync/internal/api"
)

var labelCaser = cases.Title(language.English)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(actions []api.QueueAction) [][]string {
	if len(actions) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(actions))
	for _, action := range actions {
		rows = append(rows, []string{
			action.ID,
			formatKindLabel(action.Kind),
			formatStatusLabel(action.Status),
			fmt.Sprintf("%d", action.RetryCount),
			formatDisplayTime(action.CreatedAt),
			truncateError(action.ErrorMessage),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	return labelCaser.String(strings.ReplaceAll(strings.TrimSpace(status), "_", " "))
}

func formatKindLabel(kind string) string {
	return labelCaser.String(strings.ReplaceAll(strings.TrimSpace(kind), "_", " "))
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	return value
}

func truncateError(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return "-"
	}
	if len(message) > 40 {
		return message[:40] + "..."
	}
	return message
}
