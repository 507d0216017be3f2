package reconcile

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/trueheartapps/versesync/internal/annot"
)

// ErrSuspectEmpty is returned when a merge came out empty in every category
// even though the remote snapshot had data or events were replayed. That
// pattern means a transient load failure or a race against an in-flight
// write, not a real mass deletion; the caller must re-fetch the remote
// snapshot and adopt it instead of persisting the empty result.
var ErrSuspectEmpty = errors.New("merge produced empty snapshot against non-empty remote")

// Engine merges snapshots. The zero value is not usable; call NewEngine.
type Engine struct {
	// Retention bounds tombstone age; older events are garbage-collected
	// before anything else happens.
	Retention time.Duration
}

func NewEngine() *Engine {
	return &Engine{Retention: DefaultRetention}
}

// Merge reconciles local against remote and returns the merged snapshot
// plus a report of records removed by tombstones. Inputs are never mutated.
//
// pending holds this device's not-yet-uploaded deletions; remoteEvents is
// the fetched slice of the remote event log, in log order. now is injected
// so retention and metadata stamps are reproducible in tests.
func (e *Engine) Merge(local, remote annot.Snapshot, pending []annot.DeletionEvent, remoteEvents []annot.Event, deviceID string, now time.Time) (annot.Snapshot, Report, error) {
	lc := local.Normalize().Clone()
	rc := remote.Normalize().Clone()

	// Step 1: union tombstones and drop those past retention.
	tombs := make([]annot.DeletionEvent, 0, len(rc.DeletionEvents)+len(pending))
	tombs = append(tombs, rc.DeletionEvents...)
	tombs = append(tombs, pending...)
	tombs = CleanupTombstones(tombs, e.Retention, now)

	union := tombs
	for _, ev := range remoteEvents {
		if del, ok := ev.Deletion(); ok {
			union = append(union, del)
		}
	}
	union = CleanupTombstones(union, e.Retention, now)

	// Step 2: apply tombstones to both sides independently.
	var rep Report
	applyTombstones(&lc, tombs, &rep)
	applyTombstones(&rc, tombs, &rep)

	// Step 3: per-category last-write-wins; ties keep the local copy.
	merged := annot.Snapshot{
		Bookmarks:    mergeCategory(lc.Bookmarks, rc.Bookmarks),
		Notes:        mergeCategory(lc.Notes, rc.Notes),
		EditedVerses: mergeCells(lc.EditedVerses, rc.EditedVerses),
		Prompts:      mergeCategory(lc.Prompts, rc.Prompts),
	}

	// Step 4: replay the event log over the merged state.
	e.replay(&merged, remoteEvents, now, &rep)

	// Step 5: empty-result guard.
	if merged.IsEmpty() && (!remote.Normalize().IsEmpty() || len(remoteEvents) > 0) {
		return annot.Snapshot{}, rep, ErrSuspectEmpty
	}

	// Step 6: version and metadata.
	merged.DeletionEvents = union
	merged.SyncVersion = remote.SyncVersion + 1
	merged.ParticipatingDevices = unionDevices(local.ParticipatingDevices, remote.ParticipatingDevices, deviceID)
	merged.LastModified = now
	merged.Timestamp = now

	return merged, rep, nil
}

type timestamped interface {
	ModTime() time.Time
}

// mergeCategory keeps, for every key on either side, the copy with the
// greater timestamp. Equal timestamps keep the local copy, a fixed
// deterministic tie-break.
func mergeCategory[T timestamped](local, remote map[string]T) map[string]T {
	out := make(map[string]T, len(remote))
	for k, v := range remote {
		out[k] = v
	}
	for k, lv := range local {
		rv, ok := out[k]
		if !ok || !lv.ModTime().Before(rv.ModTime()) {
			out[k] = lv
		}
	}
	return out
}

// mergeCells merges edited-verse cells language by language, so two devices
// editing different translations of the same verse both keep their work.
func mergeCells(local, remote map[string]annot.EditedVerse) map[string]annot.EditedVerse {
	out := make(map[string]annot.EditedVerse, len(remote))
	for k, v := range remote {
		out[k] = v
	}
	for k, lc := range local {
		rc, ok := out[k]
		if !ok {
			out[k] = lc
			continue
		}
		out[k] = mergeCell(lc, rc)
	}
	return out
}

func mergeCell(local, remote annot.EditedVerse) annot.EditedVerse {
	cell := annot.EditedVerse{
		Book:    local.Book,
		Chapter: local.Chapter,
		Verse:   local.Verse,
		Langs:   make(map[string]annot.LangEdit, len(local.Langs)+len(remote.Langs)),
	}
	if cell.Book == "" {
		cell.Book, cell.Chapter, cell.Verse = remote.Book, remote.Chapter, remote.Verse
	}
	for lang, le := range remote.Langs {
		cell.Langs[lang] = le
	}
	for lang, le := range local.Langs {
		if cur, ok := cell.Langs[lang]; !ok || !le.Timestamp.Before(cur.Timestamp) {
			cell.Langs[lang] = le
		}
	}
	return cell
}

// eventPayload is the category bundle carried by replace/patch/state events.
type eventPayload struct {
	Bookmarks    map[string]annot.Bookmark    `json:"bookmarks"`
	Notes        map[string]annot.Note        `json:"notes"`
	EditedVerses map[string]annot.EditedVerse `json:"editedVerses"`
	Prompts      map[string]annot.Prompt      `json:"prompts"`
}

// replay applies event-log entries, in log order, to the merged state.
// Replace overwrites the categories wholesale, patch/state shallow-merge
// their payload in, and delete runs the same not-newer-than rule as the
// tombstone pass, now against the already-merged state.
func (e *Engine) replay(merged *annot.Snapshot, events []annot.Event, now time.Time, rep *Report) {
	cutoff := now.Add(-e.Retention)

	for _, ev := range events {
		switch ev.Type {
		case annot.EventReplace:
			var p eventPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				continue
			}
			next := annot.Snapshot{
				Bookmarks:    p.Bookmarks,
				Notes:        p.Notes,
				EditedVerses: p.EditedVerses,
				Prompts:      p.Prompts,
			}
			*merged = next.Normalize()

		case annot.EventPatch, annot.EventState:
			var p eventPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				continue
			}
			for k, v := range p.Bookmarks {
				merged.Bookmarks[k] = v
			}
			for k, v := range p.Notes {
				merged.Notes[k] = v
			}
			for k, v := range p.Prompts {
				merged.Prompts[k] = v
			}
			for k, v := range p.EditedVerses {
				if cur, ok := merged.EditedVerses[k]; ok {
					merged.EditedVerses[k] = mergeCell(cur, v)
				} else {
					merged.EditedVerses[k] = v
				}
			}

		case annot.EventDelete:
			del, ok := ev.Deletion()
			if !ok || !del.CreatedAt.After(cutoff) {
				continue
			}
			applyTombstones(merged, []annot.DeletionEvent{del}, rep)
		}
	}
}

func unionDevices(a, b []string, deviceID string) []string {
	seen := make(map[string]struct{}, len(a)+len(b)+1)
	for _, d := range a {
		seen[d] = struct{}{}
	}
	for _, d := range b {
		seen[d] = struct{}{}
	}
	if deviceID != "" {
		seen[deviceID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
