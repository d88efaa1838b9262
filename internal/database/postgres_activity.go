package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var (
	_ ActivityLog    = (*PostgresStore)(nil)
	_ ActivityPruner = (*PostgresStore)(nil)
)

// RecordActivity inserts entries in a single batch. Rows whose event id is
// already stored are skipped.
func (s *PostgresStore) RecordActivity(ctx context.Context, entries []ActivityEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO activity (event_id, type, subject, user_id, payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id) DO NOTHING`,
			e.EventID, e.Type, e.Subject, e.UserID, []byte(e.Payload), e.OccurredAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	stored := 0
	for i := range entries {
		tag, err := results.Exec()
		if err != nil {
			return stored, fmt.Errorf("failed to record activity %s: %w", entries[i].EventID, err)
		}
		stored += int(tag.RowsAffected())
	}
	return stored, nil
}

// RecentActivity returns a user's newest entries first.
func (s *PostgresStore) RecentActivity(ctx context.Context, userID int64, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT event_id, type, subject, user_id, payload, occurred_at
		FROM activity
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

// ActivityBefore returns entries older than before, oldest first.
func (s *PostgresStore) ActivityBefore(ctx context.Context, before time.Time, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT event_id, type, subject, user_id, payload, occurred_at
		FROM activity
		WHERE occurred_at < $1
		ORDER BY occurred_at ASC
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired activity: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

// DeleteActivity removes entries by event id.
func (s *PostgresStore) DeleteActivity(ctx context.Context, eventIDs []string) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM activity WHERE event_id = ANY($1)`, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete activity: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanActivity(rows pgx.Rows) ([]ActivityEntry, error) {
	out := []ActivityEntry{}
	for rows.Next() {
		var (
			e       ActivityEntry
			payload []byte
		)
		if err := rows.Scan(&e.EventID, &e.Type, &e.Subject, &e.UserID, &payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}
