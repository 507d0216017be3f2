// Package services contains application services for the versesync client:
// annotation editing, authentication, and the synchronization round itself.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/client/storage"
)

// AnnotationService defines local annotation edits for the CLI. Every
// mutation stamps the record with the current time and notifies the sync
// scheduler; deletions additionally queue a tombstone for upload.
type AnnotationService interface {
	SetBookmark(ctx context.Context, book, chapter, verse string) error
	SetNote(ctx context.Context, book, chapter, verse, text string) error
	SetEditedVerse(ctx context.Context, book, chapter, verse, language, text string) error
	SetPrompt(ctx context.Context, name, promptType, language, color, text string) error
	Delete(ctx context.Context, target annot.Target, id string) error
	Snapshot(ctx context.Context) (annot.Snapshot, error)
}

type annotationService struct {
	repos  *storage.Repositories
	notify func()
	now    func() time.Time
}

// NewAnnotationService constructs an AnnotationService over the local store.
// notify is called after every successful mutation; pass nil to disable.
func NewAnnotationService(repos *storage.Repositories, notify func()) AnnotationService {
	if notify == nil {
		notify = func() {}
	}
	return &annotationService{repos: repos, notify: notify, now: time.Now}
}

func (s *annotationService) put(ctx context.Context, target annot.Target, id string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := s.repos.Annotations.Put(ctx, target, id, payload); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *annotationService) SetBookmark(ctx context.Context, book, chapter, verse string) error {
	key := annot.VerseKey(book, chapter, verse)
	return s.put(ctx, annot.TargetBookmark, key, annot.Bookmark{
		Book: book, Chapter: chapter, Verse: verse,
		Timestamp: s.now().UTC(),
	})
}

func (s *annotationService) SetNote(ctx context.Context, book, chapter, verse, text string) error {
	key := annot.VerseKey(book, chapter, verse)
	return s.put(ctx, annot.TargetNote, key, annot.Note{
		Book: book, Chapter: chapter, Verse: verse, Text: text,
		Timestamp: s.now().UTC(),
	})
}

// SetEditedVerse updates one language of a verse cell, preserving the other
// languages already stored for it.
func (s *annotationService) SetEditedVerse(ctx context.Context, book, chapter, verse, language, text string) error {
	key := annot.VerseKey(book, chapter, verse)

	cell := annot.EditedVerse{Book: book, Chapter: chapter, Verse: verse}
	records, err := s.repos.Annotations.Load(ctx, annot.TargetEditedVerse)
	if err != nil {
		return err
	}
	if payload, ok := records[key]; ok {
		if err := json.Unmarshal(payload, &cell); err != nil {
			cell = annot.EditedVerse{Book: book, Chapter: chapter, Verse: verse}
		}
	}
	if cell.Langs == nil {
		cell.Langs = map[string]annot.LangEdit{}
	}
	cell.Langs[language] = annot.LangEdit{Text: text, Timestamp: s.now().UTC()}

	return s.put(ctx, annot.TargetEditedVerse, key, cell)
}

func (s *annotationService) SetPrompt(ctx context.Context, name, promptType, language, color, text string) error {
	key := annot.PromptKey(name, promptType, language)
	return s.put(ctx, annot.TargetPrompt, key, annot.Prompt{
		Name: name, Type: promptType, Language: language,
		Color: color, Text: text,
		UpdatedAt: s.now().UTC(),
	})
}

// Delete removes the record locally and queues a tombstone so the deletion
// reaches the other devices at the next sync.
func (s *annotationService) Delete(ctx context.Context, target annot.Target, id string) error {
	deviceID, err := s.repos.Metadata.GetOrCreateDeviceID(ctx)
	if err != nil {
		return err
	}

	ev := annot.DeletionEvent{
		EventID:   uuid.NewString(),
		Target:    target,
		ID:        id,
		CreatedAt: s.now().UTC(),
		DeviceID:  deviceID,
	}
	if err := s.repos.Tombstones.Enqueue(ctx, ev); err != nil {
		return err
	}
	if err := s.repos.Annotations.Delete(ctx, target, id); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *annotationService) Snapshot(ctx context.Context) (annot.Snapshot, error) {
	return storage.LoadSnapshot(ctx, s.repos.Annotations)
}
