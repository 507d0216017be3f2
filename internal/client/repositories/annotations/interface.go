// Package annotations persists the device's local annotation records,
// one category-scoped key→payload map per target. Payloads are the
// records' canonical JSON; decoding lives at the storage boundary, so this
// package never needs to know the record shapes.
package annotations

import (
	"context"

	"github.com/trueheartapps/versesync/internal/annot"
)

type Repository interface {
	// Load returns the whole category as a key→payload map.
	Load(ctx context.Context, target annot.Target) (map[string][]byte, error)

	// Replace swaps the whole category for the given map atomically.
	Replace(ctx context.Context, target annot.Target, records map[string][]byte) error

	// Put upserts one record.
	Put(ctx context.Context, target annot.Target, id string, payload []byte) error

	// Delete removes one record. Deleting a missing id is not an error.
	Delete(ctx context.Context, target annot.Target, id string) error
}
