package syncdata

import (
	"context"

	"github.com/trueheartapps/versesync/internal/annot"
)

// SnapshotStore persists snapshot blobs. Implementations exist for
// PostgreSQL, S3-compatible object storage and process memory.
type SnapshotStore interface {
	// Get returns the stored snapshot or common.ErrorNotFound.
	Get(ctx context.Context, userID, appID string) (*SnapshotRecord, error)

	// Put stores the snapshot, replacing any previous one.
	Put(ctx context.Context, rec *SnapshotRecord) error

	// Stat reports whether a snapshot exists and its size without
	// transferring the blob.
	Stat(ctx context.Context, userID, appID string) (bool, int64, error)
}

// EventRepository persists the append-only deletion event log.
type EventRepository interface {
	Append(ctx context.Context, userID, appID string, events []annot.Event) error

	// List returns events with sequence numbers greater than since, at most
	// limit of them, together with the cursor to resume from.
	List(ctx context.Context, userID, appID string, since int64, limit int) ([]annot.Event, int64, error)
}
