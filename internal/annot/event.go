package annot

import (
	"encoding/json"
	"time"
)

// EventTime marshals as epoch milliseconds and unmarshals from either
// epoch milliseconds or an ISO-8601 string; both forms are in the wild.
type EventTime struct {
	time.Time
}

func (t EventTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UnixMilli())
}

func (t *EventTime) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Permissive: a malformed timestamp becomes the zero time, which
		// makes the event lose every not-newer-than comparison and age out
		// at the next retention pass.
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed.UTC()
	return nil
}

// DeletionEvent is a tombstone: the intent to delete one record, attributed
// to a device and a moment in time. It stays effective against any record
// whose own timestamp is not strictly newer than CreatedAt.
type DeletionEvent struct {
	EventID   string
	Target    Target
	ID        string
	CreatedAt time.Time
	DeviceID  string
}

type deletionPayload struct {
	Target Target `json:"target"`
	ID     string `json:"id"`
}

type deletionWire struct {
	EventID   string           `json:"event_id,omitempty"`
	Type      string           `json:"type"`
	Payload   *deletionPayload `json:"payload,omitempty"`
	CreatedAt *EventTime       `json:"created_at,omitempty"`
	DeviceID  string           `json:"device_id,omitempty"`

	// legacy shape: {"id":..., "type":"bookmark", "deletedAt":..., "deviceId":...}
	LegacyID       string     `json:"id,omitempty"`
	LegacyDeleted  *EventTime `json:"deletedAt,omitempty"`
	LegacyDeviceID string     `json:"deviceId,omitempty"`
}

func (e DeletionEvent) MarshalJSON() ([]byte, error) {
	ct := EventTime{e.CreatedAt}
	return json.Marshal(deletionWire{
		EventID:   e.EventID,
		Type:      "delete",
		Payload:   &deletionPayload{Target: e.Target, ID: e.ID},
		CreatedAt: &ct,
		DeviceID:  e.DeviceID,
	})
}

func (e *DeletionEvent) UnmarshalJSON(data []byte) error {
	var w deletionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if w.Payload != nil {
		e.EventID = w.EventID
		e.Target = w.Payload.Target
		e.ID = w.Payload.ID
		if w.CreatedAt != nil {
			e.CreatedAt = w.CreatedAt.Time
		}
		e.DeviceID = w.DeviceID
		return nil
	}

	// Legacy shape carries the target in "type" and the time in "deletedAt".
	e.EventID = w.EventID
	e.Target = Target(w.Type)
	e.ID = w.LegacyID
	if w.LegacyDeleted != nil {
		e.CreatedAt = w.LegacyDeleted.Time
	} else if w.CreatedAt != nil {
		e.CreatedAt = w.CreatedAt.Time
	}
	e.DeviceID = w.LegacyDeviceID
	if e.DeviceID == "" {
		e.DeviceID = w.DeviceID
	}
	return nil
}

// Event is one entry of the remote event log. Delete events carry a
// DeletionEvent payload; replace/patch/state events carry category maps.
type Event struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt EventTime       `json:"created_at"`
	DeviceID  string          `json:"device_id,omitempty"`
}

// Event types understood by the replay step.
const (
	EventReplace = "replace"
	EventPatch   = "patch"
	EventState   = "state"
	EventDelete  = "delete"
)

// Event wraps the tombstone as an event-log entry.
func (e DeletionEvent) Event() Event {
	payload, _ := json.Marshal(deletionPayload{Target: e.Target, ID: e.ID})
	return Event{
		EventID:   e.EventID,
		Type:      EventDelete,
		Payload:   payload,
		CreatedAt: EventTime{e.CreatedAt},
		DeviceID:  e.DeviceID,
	}
}

// Deletion decodes a delete event's payload. ok is false for other event
// types or an undecodable payload.
func (ev Event) Deletion() (DeletionEvent, bool) {
	if ev.Type != EventDelete {
		return DeletionEvent{}, false
	}
	var p deletionPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ID == "" {
		return DeletionEvent{}, false
	}
	if p.Target == "" {
		p.Target = TargetBookmark
	}
	return DeletionEvent{
		EventID:   ev.EventID,
		Target:    p.Target,
		ID:        p.ID,
		CreatedAt: ev.CreatedAt.Time,
		DeviceID:  ev.DeviceID,
	}, true
}
