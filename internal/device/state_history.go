package device

import (
	"context"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/light"
)

// StateHistoryEntry is one recorded light state change.
type StateHistoryEntry struct {
	ID        int64       `json:"id"`
	EntityID  string      `json:"entity_id"`
	State     light.State `json:"state"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

// StateHistoryRepository stores and retrieves light state change history.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange stores a snapshot. An empty source is recorded as "mqtt".
	RecordStateChange(ctx context.Context, entityID string, state light.State, source string) error

	// GetHistory returns entries newest first. limit <= 0 means the default
	// of 50; values above 200 are clamped.
	GetHistory(ctx context.Context, entityID string, limit int) ([]StateHistoryEntry, error)

	// PruneHistory deletes entries older than olderThan and returns the count.
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}
