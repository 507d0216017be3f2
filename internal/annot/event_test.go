package annot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionEvent_WireShape(t *testing.T) {
	ev := DeletionEvent{
		EventID:   "del-1:2:3-100",
		Target:    TargetNote,
		ID:        "1:2:3",
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
		DeviceID:  "dev-a",
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.JSONEq(t, `"delete"`, string(m["type"]))
	assert.JSONEq(t, `{"target":"note","id":"1:2:3"}`, string(m["payload"]))
	assert.JSONEq(t, `1700000000000`, string(m["created_at"]))

	var back DeletionEvent
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ev, back)
}

func TestDeletionEvent_LegacyShape(t *testing.T) {
	raw := `{"id":"1:2:3","type":"bookmark","deletedAt":"2025-06-01T12:00:00Z","deviceId":"old-device"}`

	var ev DeletionEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.Equal(t, TargetBookmark, ev.Target)
	assert.Equal(t, "1:2:3", ev.ID)
	assert.Equal(t, "old-device", ev.DeviceID)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), ev.CreatedAt)
}

func TestEventTime_AcceptsBothForms(t *testing.T) {
	var et EventTime
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &et))
	assert.Equal(t, int64(1700000000000), et.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01T12:00:00Z"`), &et))
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), et.Time)

	// malformed timestamps degrade to zero rather than failing the decode
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &et))
	assert.True(t, et.IsZero())
}

func TestEvent_Deletion(t *testing.T) {
	ev := Event{
		EventID:   "e1",
		Type:      EventDelete,
		Payload:   json.RawMessage(`{"target":"prompt","id":"q||verse||en"}`),
		CreatedAt: EventTime{time.UnixMilli(150).UTC()},
	}

	del, ok := ev.Deletion()
	require.True(t, ok)
	assert.Equal(t, TargetPrompt, del.Target)
	assert.Equal(t, "q||verse||en", del.ID)
	assert.Equal(t, int64(150), del.CreatedAt.UnixMilli())

	// target defaults to bookmark when absent
	ev.Payload = json.RawMessage(`{"id":"1:1:1"}`)
	del, ok = ev.Deletion()
	require.True(t, ok)
	assert.Equal(t, TargetBookmark, del.Target)

	_, ok = Event{Type: EventPatch}.Deletion()
	assert.False(t, ok)
}
