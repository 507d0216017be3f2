package annot

import (
	"time"
)

// Snapshot is the full exchanged state of all annotation categories plus
// merge metadata. A snapshot is an immutable value: every merge produces a
// new one and supersedes the previous.
type Snapshot struct {
	Bookmarks    map[string]Bookmark    `json:"bookmarks"`
	Notes        map[string]Note        `json:"notes"`
	EditedVerses map[string]EditedVerse `json:"editedVerses"`
	Prompts      map[string]Prompt      `json:"prompts"`

	DeletionEvents       []DeletionEvent `json:"deletionEvents"`
	SyncVersion          int64           `json:"syncVersion"`
	ParticipatingDevices []string        `json:"participatingDevices"`
	LastModified         time.Time       `json:"lastModified"`
	Timestamp            time.Time       `json:"timestamp"`
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() Snapshot {
	return Snapshot{
		Bookmarks:    map[string]Bookmark{},
		Notes:        map[string]Note{},
		EditedVerses: map[string]EditedVerse{},
		Prompts:      map[string]Prompt{},
	}
}

// Normalize returns a copy with nil category maps replaced by empty ones.
// A malformed or partial remote snapshot is treated as missing categories,
// never as an error.
func (s Snapshot) Normalize() Snapshot {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]Bookmark{}
	}
	if s.Notes == nil {
		s.Notes = map[string]Note{}
	}
	if s.EditedVerses == nil {
		s.EditedVerses = map[string]EditedVerse{}
	}
	if s.Prompts == nil {
		s.Prompts = map[string]Prompt{}
	}
	return s
}

// IsEmpty reports whether every category is empty. Metadata is ignored.
func (s Snapshot) IsEmpty() bool {
	return len(s.Bookmarks) == 0 && len(s.Notes) == 0 &&
		len(s.EditedVerses) == 0 && len(s.Prompts) == 0
}

// Count returns the total number of records across categories.
func (s Snapshot) Count() int {
	return len(s.Bookmarks) + len(s.Notes) + len(s.EditedVerses) + len(s.Prompts)
}

// Clone returns a deep copy. Mutating the copy never touches the original.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Bookmarks = make(map[string]Bookmark, len(s.Bookmarks))
	for k, v := range s.Bookmarks {
		out.Bookmarks[k] = v
	}
	out.Notes = make(map[string]Note, len(s.Notes))
	for k, v := range s.Notes {
		out.Notes[k] = v
	}
	out.EditedVerses = make(map[string]EditedVerse, len(s.EditedVerses))
	for k, v := range s.EditedVerses {
		cell := v
		cell.Langs = make(map[string]LangEdit, len(v.Langs))
		for lang, le := range v.Langs {
			cell.Langs[lang] = le
		}
		out.EditedVerses[k] = cell
	}
	out.Prompts = make(map[string]Prompt, len(s.Prompts))
	for k, v := range s.Prompts {
		out.Prompts[k] = v
	}
	out.DeletionEvents = append([]DeletionEvent(nil), s.DeletionEvents...)
	out.ParticipatingDevices = append([]string(nil), s.ParticipatingDevices...)
	return out
}

// ModTimeOf returns the last-modified time of the record addressed by
// (target, id), and whether such a record exists.
func (s Snapshot) ModTimeOf(target Target, id string) (time.Time, bool) {
	switch target {
	case TargetBookmark:
		if r, ok := s.Bookmarks[id]; ok {
			return r.ModTime(), true
		}
	case TargetNote:
		if r, ok := s.Notes[id]; ok {
			return r.ModTime(), true
		}
	case TargetEditedVerse:
		if r, ok := s.EditedVerses[id]; ok {
			return r.ModTime(), true
		}
	case TargetPrompt:
		if r, ok := s.Prompts[id]; ok {
			return r.ModTime(), true
		}
	}
	return time.Time{}, false
}

// Remove deletes the record addressed by (target, id). It reports whether
// a record was present.
func (s *Snapshot) Remove(target Target, id string) bool {
	switch target {
	case TargetBookmark:
		if _, ok := s.Bookmarks[id]; ok {
			delete(s.Bookmarks, id)
			return true
		}
	case TargetNote:
		if _, ok := s.Notes[id]; ok {
			delete(s.Notes, id)
			return true
		}
	case TargetEditedVerse:
		if _, ok := s.EditedVerses[id]; ok {
			delete(s.EditedVerses, id)
			return true
		}
	case TargetPrompt:
		if _, ok := s.Prompts[id]; ok {
			delete(s.Prompts, id)
			return true
		}
	}
	return false
}
