package queue

import (
	"time"

	"github.com/google/uuid"
)

const idTimestampLayout = "20060102T150405.000000000Z"

// newActionID builds a collision-resistant identifier that still sorts
// chronologically, so lexicographic order matches creation order even when
// two actions share a created_at value.
func newActionID(now time.Time) string {
	return now.UTC().Format(idTimestampLayout) + "-" + uuid.NewString()
}
