package worker

import (
	"encoding/json"
	"fmt"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
)

// EntryFromEvent converts a published event into its activity feed entry.
func EntryFromEvent(ev queue.Event) (database.ActivityEntry, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return database.ActivityEntry{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return newEntry(ev, payload), nil
}

// decodeEntry decodes a message body from the event stream.
func decodeEntry(data []byte) (database.ActivityEntry, error) {
	ev, err := queue.DecodeEvent(data)
	if err != nil {
		return database.ActivityEntry{}, err
	}
	if ev.EventID() == "" {
		return database.ActivityEntry{}, fmt.Errorf("event has no id")
	}
	return newEntry(ev, data), nil
}

func newEntry(ev queue.Event, payload []byte) database.ActivityEntry {
	base := ev.Base()
	return database.ActivityEntry{
		EventID:    base.ID,
		Type:       string(base.Type),
		Subject:    ev.Subject(),
		UserID:     base.UserID,
		Payload:    json.RawMessage(payload),
		OccurredAt: base.Timestamp,
	}
}
