package annot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Target names a record category in deletion events and store calls.
type Target string

const (
	TargetBookmark    Target = "bookmark"
	TargetNote        Target = "note"
	TargetEditedVerse Target = "editedVerse"
	TargetPrompt      Target = "prompt"
)

// Targets lists all categories in a fixed order.
var Targets = []Target{TargetBookmark, TargetNote, TargetEditedVerse, TargetPrompt}

// VerseKey builds the composite key addressing a verse-scoped record.
func VerseKey(book, chapter, verse string) string {
	return fmt.Sprintf("%s:%s:%s", book, chapter, verse)
}

// SplitVerseKey is the inverse of VerseKey. ok is false when the key does
// not have exactly three segments.
func SplitVerseKey(key string) (book, chapter, verse string, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// PromptKey builds the composite key addressing a prompt.
func PromptKey(name, promptType, language string) string {
	return name + "||" + promptType + "||" + language
}

// Bookmark marks a verse. The timestamp is the owning device's clock at the
// moment the bookmark was set.
type Bookmark struct {
	Book      string    `json:"book"`
	Chapter   string    `json:"chapter"`
	Verse     string    `json:"verse"`
	Timestamp time.Time `json:"timestamp"`
}

func (b Bookmark) ModTime() time.Time { return b.Timestamp }

// Note attaches free-form text to a verse.
type Note struct {
	Book      string    `json:"book"`
	Chapter   string    `json:"chapter"`
	Verse     string    `json:"verse"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (n Note) ModTime() time.Time { return n.Timestamp }

// LangEdit is one per-language entry inside an edited verse cell.
type LangEdit struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// EditedVerse is a cell of user-supplied verse text, one entry per language.
// Conflict resolution runs per language; the cell as a whole is considered
// modified at the newest of its entries.
type EditedVerse struct {
	Book    string
	Chapter string
	Verse   string
	Langs   map[string]LangEdit
}

// ModTime returns the newest timestamp across the cell's language entries.
func (e EditedVerse) ModTime() time.Time {
	var max time.Time
	for _, le := range e.Langs {
		if le.Timestamp.After(max) {
			max = le.Timestamp
		}
	}
	return max
}

// editedVerseMetaKeys are the cell fields that are not language entries.
var editedVerseMetaKeys = map[string]struct{}{
	"book": {}, "chapter": {}, "verse": {}, "timestamp": {},
}

// MarshalJSON flattens the language entries next to book/chapter/verse,
// matching the historical wire shape:
//
//	{"book":"1","chapter":"2","verse":"3","en":{"text":"...","timestamp":"..."}}
func (e EditedVerse) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Langs)+3)
	m["book"] = e.Book
	m["chapter"] = e.Chapter
	m["verse"] = e.Verse
	for lang, le := range e.Langs {
		m[lang] = le
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the flattened wire shape. Non-object language values
// (bare strings from very old clients) become entries with a zero timestamp.
func (e *EditedVerse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Langs = make(map[string]LangEdit)
	for k, v := range raw {
		if _, meta := editedVerseMetaKeys[k]; meta {
			if k != "timestamp" {
				var s string
				if err := json.Unmarshal(v, &s); err == nil {
					switch k {
					case "book":
						e.Book = s
					case "chapter":
						e.Chapter = s
					case "verse":
						e.Verse = s
					}
				}
			}
			continue
		}

		var le LangEdit
		if err := json.Unmarshal(v, &le); err == nil {
			e.Langs[k] = le
			continue
		}
		var text string
		if err := json.Unmarshal(v, &text); err == nil {
			e.Langs[k] = LangEdit{Text: text}
		}
	}
	return nil
}

// Prompt is a user-defined question template for the study assistant.
type Prompt struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Language  string    `json:"language"`
	Color     string    `json:"color"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Prompt) ModTime() time.Time { return p.UpdatedAt }
