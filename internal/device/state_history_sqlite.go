package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/light"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	// historyTimeFormat matches SQLite strftime("%Y-%m-%dT%H:%M:%fZ") so
	// created_at sorts lexically whichever side wrote it.
	historyTimeFormat = "2006-01-02T15:04:05.000Z"
)

// SQLiteStateHistoryRepository implements StateHistoryRepository using SQLite.
//
// Snapshots are stored as JSON in the state_history table.
type SQLiteStateHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteStateHistoryRepository creates a repository over an open, migrated database.
func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db}
}

// RecordStateChange inserts a new state history entry.
func (r *SQLiteStateHistoryRepository) RecordStateChange(ctx context.Context, entityID string, state light.State, source string) error {
	if entityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if source == "" {
		source = string(light.SourceMQTT)
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO state_history (entity_id, state, source, created_at) VALUES (?, ?, ?, ?)",
		entityID,
		string(stateJSON),
		source,
		time.Now().UTC().Format(historyTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}

	return nil
}

// GetHistory returns recent entries for an entity, newest first.
func (r *SQLiteStateHistoryRepository) GetHistory(ctx context.Context, entityID string, limit int) ([]StateHistoryEntry, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, state, source, created_at
		 FROM state_history
		 WHERE entity_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		entityID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]StateHistoryEntry, 0, limit)
	for rows.Next() {
		var entry StateHistoryEntry
		var stateJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.EntityID, &stateJSON, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		if err := json.Unmarshal([]byte(stateJSON), &entry.State); err != nil {
			return nil, fmt.Errorf("unmarshalling state: %w", err)
		}

		timestamp, err := parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}

	return entries, nil
}

// PruneHistory deletes entries older than now-olderThan.
func (r *SQLiteStateHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(historyTimeFormat)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM state_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting state history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp accepts RFC 3339 with or without fractional seconds,
// so rows written by the column default also parse.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return timestamp, nil
}
