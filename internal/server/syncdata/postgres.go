package syncdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/common"
)

type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) (*PostgresSnapshotStore, error) {
	return &PostgresSnapshotStore{db: db}, nil
}

func (r *PostgresSnapshotStore) Get(ctx context.Context, userID, appID string) (*SnapshotRecord, error) {
	query :=
		`SELECT user_id, app_id, data, size_bytes, updated_at FROM snapshots
		 WHERE user_id = $1 AND app_id = $2
		 `

	rec := &SnapshotRecord{}
	err := r.db.QueryRowContext(ctx, query, userID, appID).
		Scan(&rec.UserID, &rec.AppID, &rec.Data, &rec.SizeBytes, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return rec, nil
}

func (r *PostgresSnapshotStore) Put(ctx context.Context, rec *SnapshotRecord) error {
	query :=
		`INSERT INTO snapshots (user_id, app_id, data, size_bytes, updated_at)
         VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id, app_id)
		 DO UPDATE SET data = excluded.data, size_bytes = excluded.size_bytes, updated_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, rec.UserID, rec.AppID, rec.Data, rec.SizeBytes)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *PostgresSnapshotStore) Stat(ctx context.Context, userID, appID string) (bool, int64, error) {
	query :=
		`SELECT size_bytes FROM snapshots
		 WHERE user_id = $1 AND app_id = $2
		 `

	var size int64
	err := r.db.QueryRowContext(ctx, query, userID, appID).Scan(&size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("error performing sql request: %v", err)
	}
	return true, size, nil
}

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) (*PostgresEventRepository, error) {
	return &PostgresEventRepository{db: db}, nil
}

func (r *PostgresEventRepository) Append(ctx context.Context, userID, appID string, events []annot.Event) error {
	query :=
		`INSERT INTO sync_events (user_id, app_id, event_id, payload)
         VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, app_id, event_id) DO NOTHING
		 `

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("error encoding event: %v", err)
		}
		if _, err := r.db.ExecContext(ctx, query, userID, appID, ev.EventID, payload); err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}
	}
	return nil
}

func (r *PostgresEventRepository) List(ctx context.Context, userID, appID string, since int64, limit int) ([]annot.Event, int64, error) {
	query :=
		`SELECT seq, payload FROM sync_events
		 WHERE user_id = $1 AND app_id = $2 AND seq > $3
		 ORDER BY seq
		 LIMIT $4
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, appID, since, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	events := []annot.Event{}
	cursor := since
	for rows.Next() {
		var seq int64
		var payload []byte
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, 0, fmt.Errorf("error scanning event row: %v", err)
		}

		var ev annot.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			// skip rather than fail the whole page
			cursor = seq
			continue
		}
		events = append(events, ev)
		cursor = seq
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading event rows: %v", err)
	}

	return events, cursor, nil
}
