// Package tombstones holds the device's pending deletion events until the
// next sync uploads them. Enqueue deduplicates by (target, id); draining is
// atomic with respect to the single sync flow.
package tombstones

import (
	"context"

	"github.com/trueheartapps/versesync/internal/annot"
)

type Repository interface {
	// Enqueue records the intent to delete one item. A second enqueue for
	// the same (target, id) is a no-op; the first event wins.
	Enqueue(ctx context.Context, ev annot.DeletionEvent) error

	// Pending returns the queued events without removing them.
	Pending(ctx context.Context) ([]annot.DeletionEvent, error)

	// DrainPending returns the queued events and clears the queue in one
	// transaction.
	DrainPending(ctx context.Context) ([]annot.DeletionEvent, error)
}
