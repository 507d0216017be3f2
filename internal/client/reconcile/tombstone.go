package reconcile

import (
	"time"

	"github.com/trueheartapps/versesync/internal/annot"
)

// DefaultRetention is how long a tombstone stays replayable before it is
// garbage-collected. Ninety days is long enough for any realistically
// dormant device to catch up.
const DefaultRetention = 90 * 24 * time.Hour

// CleanupTombstones drops events whose created_at has aged past the
// retention window. Pure filter: the input slice is not modified.
func CleanupTombstones(events []annot.DeletionEvent, retention time.Duration, now time.Time) []annot.DeletionEvent {
	cutoff := now.Add(-retention)
	cleaned := make([]annot.DeletionEvent, 0, len(events))
	for _, ev := range events {
		if ev.CreatedAt.After(cutoff) {
			cleaned = append(cleaned, ev)
		}
	}
	return cleaned
}

// applyTombstones removes from s every record addressed by an event, unless
// the record's own timestamp is strictly newer than the event: an edit made
// after the deletion was issued elsewhere undeletes the record. s is mutated
// in place; callers pass a clone. Removed items are appended to rep.
func applyTombstones(s *annot.Snapshot, events []annot.DeletionEvent, rep *Report) {
	for _, ev := range events {
		mod, ok := s.ModTimeOf(ev.Target, ev.ID)
		if !ok {
			continue
		}
		if mod.After(ev.CreatedAt) {
			// Undelete by edit: the record outlived its tombstone.
			continue
		}
		s.Remove(ev.Target, ev.ID)
		rep.add(ev.Target, ev.ID)
	}
}
