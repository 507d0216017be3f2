package annotations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context, target annot.Target) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payload FROM annotations WHERE target = ?`, string(target))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s records: %w", target, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", target, err)
		}
		result[id] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s records: %w", target, err)
	}
	return result, nil
}

// Replace swaps the category wholesale inside one transaction, so a reader
// never observes a half-written category.
func (r *SQLiteRepository) Replace(ctx context.Context, target annot.Target, records map[string][]byte) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM annotations WHERE target = ?`, string(target)); err != nil {
			return fmt.Errorf("failed to clear %s records: %w", target, err)
		}
		for id, payload := range records {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO annotations (target, id, payload) VALUES (?, ?, ?)`,
				string(target), id, payload); err != nil {
				return fmt.Errorf("failed to insert %s record: %w", target, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Put(ctx context.Context, target annot.Target, id string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO annotations (target, id, payload) VALUES (?, ?, ?)
		ON CONFLICT(target, id) DO UPDATE SET payload = excluded.payload
	`, string(target), id, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert %s record: %w", target, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, target annot.Target, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM annotations WHERE target = ? AND id = ?`, string(target), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", target, err)
	}
	return nil
}
