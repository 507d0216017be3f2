package syncdata

import (
	"context"
	"sync"
	"time"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/common"
)

// MemorySnapshotStore keeps snapshots in process memory. It backs the
// "memory" storage mode and the HTTP API tests.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*SnapshotRecord
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]*SnapshotRecord)}
}

func snapshotKey(userID, appID string) string {
	return userID + "/" + appID
}

func (r *MemorySnapshotStore) Get(ctx context.Context, userID, appID string) (*SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.snapshots[snapshotKey(userID, appID)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *rec
	return &copy, nil
}

func (r *MemorySnapshotStore) Put(ctx context.Context, rec *SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rec
	stored.UpdatedAt = time.Now()
	r.snapshots[snapshotKey(rec.UserID, rec.AppID)] = &stored
	return nil
}

func (r *MemorySnapshotStore) Stat(ctx context.Context, userID, appID string) (bool, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.snapshots[snapshotKey(userID, appID)]
	if !ok {
		return false, 0, nil
	}
	return true, rec.SizeBytes, nil
}

// MemoryEventRepository keeps the event log in process memory.
type MemoryEventRepository struct {
	mu   sync.RWMutex
	logs map[string][]storedEvent
	seen map[string]map[string]bool
}

type storedEvent struct {
	seq   int64
	event annot.Event
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		logs: make(map[string][]storedEvent),
		seen: make(map[string]map[string]bool),
	}
}

func (r *MemoryEventRepository) Append(ctx context.Context, userID, appID string, events []annot.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := snapshotKey(userID, appID)
	if r.seen[key] == nil {
		r.seen[key] = make(map[string]bool)
	}

	for _, ev := range events {
		if ev.EventID != "" && r.seen[key][ev.EventID] {
			continue
		}
		seq := int64(len(r.logs[key])) + 1
		r.logs[key] = append(r.logs[key], storedEvent{seq: seq, event: ev})
		if ev.EventID != "" {
			r.seen[key][ev.EventID] = true
		}
	}
	return nil
}

func (r *MemoryEventRepository) List(ctx context.Context, userID, appID string, since int64, limit int) ([]annot.Event, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []annot.Event{}
	cursor := since
	for _, se := range r.logs[snapshotKey(userID, appID)] {
		if se.seq <= since {
			continue
		}
		if limit > 0 && len(events) >= limit {
			break
		}
		events = append(events, se.event)
		cursor = se.seq
	}
	return events, cursor, nil
}
