package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/client/repositories/annotations"
)

// LoadSnapshot assembles the device's full annotation state from the store.
// Records that fail to decode are skipped rather than failing the load;
// a single corrupt row must not take syncing down.
func LoadSnapshot(ctx context.Context, repo annotations.Repository) (annot.Snapshot, error) {
	s := annot.NewSnapshot()

	for _, target := range annot.Targets {
		records, err := repo.Load(ctx, target)
		if err != nil {
			return annot.Snapshot{}, fmt.Errorf("failed to load local snapshot: %w", err)
		}
		for id, payload := range records {
			switch target {
			case annot.TargetBookmark:
				var r annot.Bookmark
				if json.Unmarshal(payload, &r) == nil {
					s.Bookmarks[id] = r
				}
			case annot.TargetNote:
				var r annot.Note
				if json.Unmarshal(payload, &r) == nil {
					s.Notes[id] = r
				}
			case annot.TargetEditedVerse:
				var r annot.EditedVerse
				if json.Unmarshal(payload, &r) == nil {
					s.EditedVerses[id] = r
				}
			case annot.TargetPrompt:
				var r annot.Prompt
				if json.Unmarshal(payload, &r) == nil {
					s.Prompts[id] = r
				}
			}
		}
	}

	return s, nil
}

// ApplySnapshot replaces the store's categories with the snapshot's
// contents. This is the merge's write-back step, the only writer besides
// direct user edits.
func ApplySnapshot(ctx context.Context, repo annotations.Repository, s annot.Snapshot) error {
	s = s.Normalize()

	categories := []struct {
		target  annot.Target
		records map[string][]byte
	}{
		{annot.TargetBookmark, encodeRecords(s.Bookmarks)},
		{annot.TargetNote, encodeRecords(s.Notes)},
		{annot.TargetEditedVerse, encodeRecords(s.EditedVerses)},
		{annot.TargetPrompt, encodeRecords(s.Prompts)},
	}

	for _, c := range categories {
		if err := repo.Replace(ctx, c.target, c.records); err != nil {
			return fmt.Errorf("failed to apply merged snapshot: %w", err)
		}
	}
	return nil
}

func encodeRecords[T any](records map[string]T) map[string][]byte {
	out := make(map[string][]byte, len(records))
	for id, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		out[id] = b
	}
	return out
}
