// Package metadata is a small key/value store for device-scoped state:
// the device id, the last successful sync time, and the event-log cursor.
package metadata

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// GetOrCreateDeviceID returns the persisted device identifier,
	// generating and storing one on first call.
	GetOrCreateDeviceID(ctx context.Context) (string, error)
}

// Well-known keys.
const (
	KeyDeviceID      = "device_id"
	KeySessionToken  = "session_token"
	KeyLastSyncTime  = "last_sync_time"
	KeyEventCursor   = "event_cursor"
	KeyLegacyPending = "jayaapp-pending-deletions"
)
