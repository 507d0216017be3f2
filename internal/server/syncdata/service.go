package syncdata

import (
	"context"
	"fmt"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/common"
)

type Service struct {
	snapshots SnapshotStore
	events    EventRepository
}

func NewService(snapshots SnapshotStore, events EventRepository) *Service {
	return &Service{snapshots: snapshots, events: events}
}

// Save validates and stores an uploaded snapshot. A snapshot with no records
// in any category is refused with common.ErrEmptySnapshotRejected: a client
// that genuinely has nothing has nothing to upload, so an empty payload far
// more likely means its local state failed to load.
func (s *Service) Save(ctx context.Context, userID, appID, data string) error {
	snapshot, err := annot.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("undecodable snapshot: %w", err)
	}

	if snapshot.Normalize().IsEmpty() {
		return common.ErrEmptySnapshotRejected
	}

	return s.snapshots.Put(ctx, &SnapshotRecord{
		UserID:    userID,
		AppID:     appID,
		Data:      data,
		SizeBytes: int64(len(data)),
	})
}

// Load returns the stored snapshot or common.ErrorNotFound.
func (s *Service) Load(ctx context.Context, userID, appID string) (*SnapshotRecord, error) {
	return s.snapshots.Get(ctx, userID, appID)
}

func (s *Service) Check(ctx context.Context, userID, appID string) (bool, int64, error) {
	return s.snapshots.Stat(ctx, userID, appID)
}

// AppendEvents accepts a batch of event-log entries. Only known event types
// are admitted; delete events must carry a decodable payload.
func (s *Service) AppendEvents(ctx context.Context, userID, appID string, events []annot.Event) error {
	accepted := make([]annot.Event, 0, len(events))
	for _, ev := range events {
		switch ev.Type {
		case annot.EventDelete:
			if _, ok := ev.Deletion(); !ok {
				continue
			}
		case annot.EventReplace, annot.EventPatch, annot.EventState:
		default:
			continue
		}
		accepted = append(accepted, ev)
	}
	if len(accepted) == 0 {
		return nil
	}
	return s.events.Append(ctx, userID, appID, accepted)
}

func (s *Service) ListEvents(ctx context.Context, userID, appID string, since int64, limit int) ([]annot.Event, int64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	return s.events.List(ctx, userID, appID, since, limit)
}
