package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueheartapps/versesync/internal/annot"
)

var now = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func bookmarkAt(ts time.Time) annot.Bookmark {
	return annot.Bookmark{Book: "1", Chapter: "2", Verse: "3", Timestamp: ts}
}

func noteAt(text string, ts time.Time) annot.Note {
	return annot.Note{Book: "1", Chapter: "2", Verse: "3", Text: text, Timestamp: ts}
}

func TestMerge_Idempotent(t *testing.T) {
	e := NewEngine()

	s := annot.NewSnapshot()
	s.Bookmarks["1:2:3"] = bookmarkAt(now.Add(-time.Hour))
	s.Notes["1:2:3"] = noteAt("stable", now.Add(-2*time.Hour))
	s.Prompts["q||verse||en"] = annot.Prompt{Name: "q", Type: "verse", Language: "en", UpdatedAt: now.Add(-time.Hour)}
	s.SyncVersion = 4

	merged, rep, err := e.Merge(s, s, nil, nil, "dev-a", now)
	require.NoError(t, err)
	assert.Zero(t, rep.Total())
	assert.Equal(t, s.Bookmarks, merged.Bookmarks)
	assert.Equal(t, s.Notes, merged.Notes)
	assert.Equal(t, s.Prompts, merged.Prompts)
	assert.Equal(t, int64(5), merged.SyncVersion)
	assert.True(t, now.Equal(merged.LastModified))
}

func TestMerge_LastWriteWins(t *testing.T) {
	e := NewEngine()

	local := annot.NewSnapshot()
	local.Notes["1:2:3"] = noteAt("a", time.UnixMilli(100).UTC())
	remote := annot.NewSnapshot()
	remote.Notes["1:2:3"] = noteAt("b", time.UnixMilli(200).UTC())

	merged, _, err := e.Merge(local, remote, nil, nil, "dev-a", now)
	require.NoError(t, err)
	assert.Equal(t, "b", merged.Notes["1:2:3"].Text)
}

func TestMerge_EqualTimestampsKeepLocal(t *testing.T) {
	e := NewEngine()
	ts := time.UnixMilli(100).UTC()

	local := annot.NewSnapshot()
	local.Notes["1:2:3"] = noteAt("local", ts)
	remote := annot.NewSnapshot()
	remote.Notes["1:2:3"] = noteAt("remote", ts)

	merged, _, err := e.Merge(local, remote, nil, nil, "dev-a", now)
	require.NoError(t, err)
	assert.Equal(t, "local", merged.Notes["1:2:3"].Text)
}

func TestMerge_OneSidedItemsSurvive(t *testing.T) {
	e := NewEngine()

	local := annot.NewSnapshot()
	local.Bookmarks["1:1:1"] = bookmarkAt(now.Add(-time.Hour))
	remote := annot.NewSnapshot()
	remote.Bookmarks["2:2:2"] = bookmarkAt(now.Add(-time.Hour))

	merged, _, err := e.Merge(local, remote, nil, nil, "dev-a", now)
	require.NoError(t, err)
	assert.Len(t, merged.Bookmarks, 2)
}

// Device A creates a bookmark; device B, never having synced, deletes the
// same id a little later. After both sync, the bookmark is gone.
func TestMerge_TombstoneRemovesOlderRecord(t *testing.T) {
	e := NewEngine()

	local := annot.NewSnapshot()
	local.Bookmarks["1:2:3"] = bookmarkAt(now.Add(-time.Minute))
	remote := annot.NewSnapshot()

	pending := []annot.DeletionEvent{{
		EventID:   "del-1",
		Target:    annot.TargetBookmark,
		ID:        "1:2:3",
		CreatedAt: now.Add(-30 * time.Second),
		DeviceID:  "dev-b",
	}}

	merged, rep, err := e.Merge(local, remote, pending, nil, "dev-b", now)
	require.NoError(t, err)
	assert.NotContains(t, merged.Bookmarks, "1:2:3")
	assert.Equal(t, []string{"1:2:3"}, rep.IDs(annot.TargetBookmark))
	// the tombstone itself travels in the merged snapshot
	require.Len(t, merged.DeletionEvents, 1)
	assert.Equal(t, "del-1", merged.DeletionEvents[0].EventID)
}

// Device A edits a note after device B tombstoned it. The edit wins:
// "undelete by edit".
func TestMerge_EditAfterDeleteSurvives(t *testing.T) {
	e := NewEngine()

	tomb := annot.DeletionEvent{
		EventID:   "del-2",
		Target:    annot.TargetNote,
		ID:        "1:2:3",
		CreatedAt: now.Add(-time.Minute),
	}

	t.Run("edit held locally, tombstone pending", func(t *testing.T) {
		local := annot.NewSnapshot()
		local.Notes["1:2:3"] = noteAt("edited later", now.Add(-30*time.Second))

		merged, rep, err := e.Merge(local, annot.NewSnapshot(), []annot.DeletionEvent{tomb}, nil, "dev-a", now)
		require.NoError(t, err)
		assert.Equal(t, "edited later", merged.Notes["1:2:3"].Text)
		assert.Zero(t, rep.Total())
	})

	t.Run("edit held remotely, tombstone in remote snapshot", func(t *testing.T) {
		remote := annot.NewSnapshot()
		remote.Notes["1:2:3"] = noteAt("edited later", now.Add(-30*time.Second))
		remote.DeletionEvents = []annot.DeletionEvent{tomb}

		merged, rep, err := e.Merge(annot.NewSnapshot(), remote, nil, nil, "dev-a", now)
		require.NoError(t, err)
		assert.Equal(t, "edited later", merged.Notes["1:2:3"].Text)
		assert.Zero(t, rep.Total())
	})
}

func TestMerge_EqualTimestampDeleteWins(t *testing.T) {
	e := NewEngine()
	ts := now.Add(-time.Minute)

	local := annot.NewSnapshot()
	local.Bookmarks["1:2:3"] = bookmarkAt(ts)

	pending := []annot.DeletionEvent{{
		Target: annot.TargetBookmark, ID: "1:2:3",
		CreatedAt: ts,
	}}

	merged, _, err := e.Merge(local, annot.NewSnapshot(), pending, nil, "d", now)
	require.NoError(t, err)
	// not strictly newer: the tombstone applies
	assert.NotContains(t, merged.Bookmarks, "1:2:3")
}

func TestMerge_TombstoneRetention(t *testing.T) {
	e := NewEngine()

	remote := annot.NewSnapshot()
	remote.Notes["keep"] = noteAt("x", now.Add(-100*24*time.Hour))
	remote.DeletionEvents = []annot.DeletionEvent{
		{EventID: "too-old", Target: annot.TargetNote, ID: "keep", CreatedAt: now.Add(-91 * 24 * time.Hour)},
		{EventID: "fresh", Target: annot.TargetBookmark, ID: "gone", CreatedAt: now.Add(-89 * 24 * time.Hour)},
	}

	merged, _, err := e.Merge(annot.NewSnapshot(), remote, nil, nil, "d", now)
	require.NoError(t, err)

	// the aged-out event neither applies nor survives in the snapshot
	assert.Contains(t, merged.Notes, "keep")
	require.Len(t, merged.DeletionEvents, 1)
	assert.Equal(t, "fresh", merged.DeletionEvents[0].EventID)
}

func TestMerge_EditedVersesMergePerLanguage(t *testing.T) {
	e := NewEngine()
	older := now.Add(-2 * time.Hour)
	newer := now.Add(-time.Hour)

	local := annot.NewSnapshot()
	local.EditedVerses["1:2:3"] = annot.EditedVerse{
		Book: "1", Chapter: "2", Verse: "3",
		Langs: map[string]annot.LangEdit{
			"en": {Text: "local en", Timestamp: newer},
			"sa": {Text: "local sa", Timestamp: older},
		},
	}
	remote := annot.NewSnapshot()
	remote.EditedVerses["1:2:3"] = annot.EditedVerse{
		Book: "1", Chapter: "2", Verse: "3",
		Langs: map[string]annot.LangEdit{
			"en": {Text: "remote en", Timestamp: older},
			"sa": {Text: "remote sa", Timestamp: newer},
			"de": {Text: "remote de", Timestamp: older},
		},
	}

	merged, _, err := e.Merge(local, remote, nil, nil, "d", now)
	require.NoError(t, err)

	cell := merged.EditedVerses["1:2:3"]
	assert.Equal(t, "local en", cell.Langs["en"].Text)
	assert.Equal(t, "remote sa", cell.Langs["sa"].Text)
	assert.Equal(t, "remote de", cell.Langs["de"].Text)
}

func TestMerge_EmptyGuard(t *testing.T) {
	e := NewEngine()

	remote := annot.NewSnapshot()
	remote.Bookmarks["1:1:1"] = bookmarkAt(now.Add(-time.Hour))

	// local empty + remote seemingly lost in merge would not happen through
	// LWW, so force it through a replace event with an empty payload
	events := []annot.Event{{
		Type:    annot.EventReplace,
		Payload: json.RawMessage(`{}`),
	}}

	_, _, err := e.Merge(annot.NewSnapshot(), remote, nil, events, "d", now)
	assert.ErrorIs(t, err, ErrSuspectEmpty)
}

func TestMerge_EmptyBothSidesIsFine(t *testing.T) {
	e := NewEngine()
	merged, rep, err := e.Merge(annot.NewSnapshot(), annot.NewSnapshot(), nil, nil, "d", now)
	require.NoError(t, err)
	assert.True(t, merged.IsEmpty())
	assert.Zero(t, rep.Total())
	assert.Equal(t, int64(1), merged.SyncVersion)
}

func TestMerge_MalformedRemoteTreatedAsEmpty(t *testing.T) {
	e := NewEngine()

	local := annot.NewSnapshot()
	local.Notes["1:1:1"] = noteAt("mine", now.Add(-time.Minute))

	// zero-value snapshot: nil maps everywhere
	merged, _, err := e.Merge(local, annot.Snapshot{}, nil, nil, "d", now)
	require.NoError(t, err)
	assert.Equal(t, "mine", merged.Notes["1:1:1"].Text)
}

func TestMerge_ReplayReplacePatchDelete(t *testing.T) {
	e := NewEngine()

	remote := annot.NewSnapshot()
	remote.Notes["1:1:1"] = noteAt("pre-replay", now.Add(-3*time.Hour))

	replacePayload, _ := json.Marshal(eventPayload{
		Notes: map[string]annot.Note{
			"2:2:2": {Book: "2", Chapter: "2", Verse: "2", Text: "replaced", Timestamp: now.Add(-2 * time.Hour)},
		},
	})
	patchPayload, _ := json.Marshal(eventPayload{
		Bookmarks: map[string]annot.Bookmark{
			"3:3:3": {Book: "3", Chapter: "3", Verse: "3", Timestamp: now.Add(-time.Hour)},
		},
	})

	events := []annot.Event{
		{EventID: "e1", Type: annot.EventReplace, Payload: replacePayload},
		{EventID: "e2", Type: annot.EventPatch, Payload: patchPayload},
		{EventID: "e3", Type: annot.EventDelete,
			Payload:   json.RawMessage(`{"target":"note","id":"2:2:2"}`),
			CreatedAt: annot.EventTime{Time: now.Add(-time.Minute)}},
	}

	merged, rep, err := e.Merge(annot.NewSnapshot(), remote, nil, events, "d", now)
	require.NoError(t, err)

	// replace dropped the pre-replay note, patch added a bookmark, delete
	// removed the replaced note (its timestamp is older than the event)
	assert.NotContains(t, merged.Notes, "1:1:1")
	assert.NotContains(t, merged.Notes, "2:2:2")
	assert.Contains(t, merged.Bookmarks, "3:3:3")
	assert.Equal(t, []string{"2:2:2"}, rep.IDs(annot.TargetNote))
}

func TestMerge_ReplayDeleteRespectsNewerEdit(t *testing.T) {
	e := NewEngine()

	remote := annot.NewSnapshot()
	remote.Notes["1:2:3"] = noteAt("edited after delete", now.Add(-30*time.Second))

	events := []annot.Event{{
		Type:      annot.EventDelete,
		Payload:   json.RawMessage(`{"target":"note","id":"1:2:3"}`),
		CreatedAt: annot.EventTime{Time: now.Add(-time.Minute)},
	}}

	merged, rep, err := e.Merge(annot.NewSnapshot(), remote, nil, events, "d", now)
	require.NoError(t, err)
	assert.Contains(t, merged.Notes, "1:2:3")
	assert.Zero(t, rep.Total())
}

func TestMerge_MetadataUpdate(t *testing.T) {
	e := NewEngine()

	remote := annot.NewSnapshot()
	remote.SyncVersion = 41
	remote.ParticipatingDevices = []string{"dev-b"}
	remote.Bookmarks["1:1:1"] = bookmarkAt(now.Add(-time.Hour))

	local := annot.NewSnapshot()
	local.ParticipatingDevices = []string{"dev-c"}

	merged, _, err := e.Merge(local, remote, nil, nil, "dev-a", now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), merged.SyncVersion)
	assert.Equal(t, []string{"dev-a", "dev-b", "dev-c"}, merged.ParticipatingDevices)
	assert.True(t, now.Equal(merged.Timestamp))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	e := NewEngine()

	local := annot.NewSnapshot()
	local.Bookmarks["1:2:3"] = bookmarkAt(now.Add(-2 * time.Minute))
	remote := annot.NewSnapshot()
	remote.Bookmarks["1:2:3"] = bookmarkAt(now.Add(-3 * time.Minute))

	pending := []annot.DeletionEvent{{
		Target: annot.TargetBookmark, ID: "1:2:3", CreatedAt: now.Add(-time.Minute),
	}}

	_, _, err := e.Merge(local, remote, pending, nil, "d", now)
	require.NoError(t, err)

	assert.Contains(t, local.Bookmarks, "1:2:3")
	assert.Contains(t, remote.Bookmarks, "1:2:3")
}
