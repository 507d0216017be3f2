package tombstones

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, ev annot.DeletionEvent) error {
	// (target, id) is the primary key; re-deleting the same item before a
	// sync keeps the original event.
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_deletions (target, id, event_id, created_at, device_id)
		VALUES (?, ?, ?, ?, ?)
	`, string(ev.Target), ev.ID, ev.EventID, ev.CreatedAt.UnixMilli(), ev.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to enqueue deletion: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]annot.DeletionEvent, error) {
	return r.pending(ctx, r.db)
}

func (r *SQLiteRepository) DrainPending(ctx context.Context) ([]annot.DeletionEvent, error) {
	var drained []annot.DeletionEvent
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		events, err := r.pending(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_deletions`); err != nil {
			return fmt.Errorf("failed to clear pending deletions: %w", err)
		}
		drained = events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drained, nil
}

func (r *SQLiteRepository) pending(ctx context.Context, db dbx.DBTX) ([]annot.DeletionEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT target, id, event_id, created_at, device_id
		FROM pending_deletions ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending deletions: %w", err)
	}
	defer rows.Close()

	var result []annot.DeletionEvent
	for rows.Next() {
		var target, id, eventID, deviceID string
		var createdAt int64
		if err := rows.Scan(&target, &id, &eventID, &createdAt, &deviceID); err != nil {
			return nil, fmt.Errorf("failed to scan pending deletion: %w", err)
		}
		result = append(result, annot.DeletionEvent{
			EventID:   eventID,
			Target:    annot.Target(target),
			ID:        id,
			CreatedAt: time.UnixMilli(createdAt).UTC(),
			DeviceID:  deviceID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending deletions: %w", err)
	}
	return result, nil
}
