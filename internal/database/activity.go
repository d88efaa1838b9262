package database

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultActivityLimit is used when a caller asks for a non-positive number
// of entries.
const DefaultActivityLimit = 20

// ActivityEntry is one consumed domain event as shown in a learner's
// activity feed.
type ActivityEntry struct {
	EventID    string          `json:"eventId"`
	Type       string          `json:"type"`
	Subject    string          `json:"subject"`
	UserID     int64           `json:"userId"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ActivityLog stores consumed events. Recording an event id that is already
// stored keeps the first copy, so redelivered events are harmless.
type ActivityLog interface {
	// RecordActivity stores entries and returns how many were new.
	RecordActivity(ctx context.Context, entries []ActivityEntry) (int, error)

	// RecentActivity returns a user's newest entries first.
	RecentActivity(ctx context.Context, userID int64, limit int) ([]ActivityEntry, error)
}

// ActivityPruner removes entries past their retention.
type ActivityPruner interface {
	// ActivityBefore returns up to limit entries that occurred before the
	// cutoff, oldest first.
	ActivityBefore(ctx context.Context, before time.Time, limit int) ([]ActivityEntry, error)

	// DeleteActivity removes entries by event id and returns how many existed.
	DeleteActivity(ctx context.Context, eventIDs []string) (int, error)
}

// MemoryActivityLog is an in-process ActivityLog.
type MemoryActivityLog struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	seen    map[string]struct{}
}

// NewMemoryActivityLog creates an empty log.
func NewMemoryActivityLog() *MemoryActivityLog {
	return &MemoryActivityLog{seen: make(map[string]struct{})}
}

func (l *MemoryActivityLog) RecordActivity(ctx context.Context, entries []ActivityEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := 0
	for _, e := range entries {
		if _, dup := l.seen[e.EventID]; dup {
			continue
		}
		l.seen[e.EventID] = struct{}{}
		e.Payload = append(json.RawMessage(nil), e.Payload...)
		l.entries = append(l.entries, e)
		stored++
	}
	return stored, nil
}

func (l *MemoryActivityLog) RecentActivity(ctx context.Context, userID int64, limit int) ([]ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []ActivityEntry{}
	for _, e := range l.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *MemoryActivityLog) ActivityBefore(ctx context.Context, before time.Time, limit int) ([]ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []ActivityEntry{}
	for _, e := range l.entries {
		if e.OccurredAt.Before(before) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteActivity forgets the ids too, so a pruned event can be recorded again.
func (l *MemoryActivityLog) DeleteActivity(ctx context.Context, eventIDs []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	drop := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		drop[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	deleted := 0
	for _, e := range l.entries {
		if _, ok := drop[e.EventID]; ok {
			delete(l.seen, e.EventID)
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return deleted, nil
}
