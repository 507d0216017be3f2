package annot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	s.Bookmarks["1:1:1"] = Bookmark{Book: "1", Chapter: "1", Verse: "1"}
	s.EditedVerses["1:1:2"] = EditedVerse{
		Book: "1", Chapter: "1", Verse: "2",
		Langs: map[string]LangEdit{"en": {Text: "a"}},
	}

	c := s.Clone()
	delete(c.Bookmarks, "1:1:1")
	c.EditedVerses["1:1:2"].Langs["en"] = LangEdit{Text: "changed"}

	assert.Contains(t, s.Bookmarks, "1:1:1")
	assert.Equal(t, "a", s.EditedVerses["1:1:2"].Langs["en"].Text)
}

func TestSnapshot_NormalizeAndEmpty(t *testing.T) {
	var s Snapshot
	n := s.Normalize()
	assert.NotNil(t, n.Bookmarks)
	assert.NotNil(t, n.Prompts)
	assert.True(t, n.IsEmpty())

	n.Notes["1:1:1"] = Note{Text: "x"}
	assert.False(t, n.IsEmpty())
	assert.Equal(t, 1, n.Count())
}

func TestSnapshot_ModTimeOfAndRemove(t *testing.T) {
	ts := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
	s := NewSnapshot()
	s.Notes["1:2:3"] = Note{Timestamp: ts}

	got, ok := s.ModTimeOf(TargetNote, "1:2:3")
	require.True(t, ok)
	assert.True(t, ts.Equal(got))

	_, ok = s.ModTimeOf(TargetNote, "9:9:9")
	assert.False(t, ok)
	_, ok = s.ModTimeOf(Target("bogus"), "1:2:3")
	assert.False(t, ok)

	assert.True(t, s.Remove(TargetNote, "1:2:3"))
	assert.False(t, s.Remove(TargetNote, "1:2:3"))
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	s := NewSnapshot()
	s.Bookmarks["1:1:1"] = Bookmark{
		Book: "1", Chapter: "1", Verse: "1",
		Timestamp: time.Date(2025, 5, 5, 5, 0, 0, 0, time.UTC),
	}
	s.SyncVersion = 7
	s.ParticipatingDevices = []string{"dev-a"}

	enc, err := EncodeSnapshot(s)
	require.NoError(t, err)

	back, err := DecodeSnapshot(enc)
	require.NoError(t, err)
	assert.Equal(t, int64(7), back.SyncVersion)
	assert.Equal(t, s.Bookmarks["1:1:1"].Book, back.Bookmarks["1:1:1"].Book)
	assert.NotNil(t, back.Prompts)

	_, err = DecodeSnapshot("not base64 at all!!")
	assert.Error(t, err)
}
