package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// GetOrCreateDeviceID returns the stable device identifier, minting one of
// the form <platform>-<unix-ms>-<random> on first use. The id attributes
// tombstones and populates participatingDevices; it never drives conflict
// resolution.
func (r *SQLiteRepository) GetOrCreateDeviceID(ctx context.Context) (string, error) {
	existing, err := r.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return string(existing), nil
	}

	suffix, err := common.MakeRandHexString(5)
	if err != nil {
		return "", fmt.Errorf("failed to generate device id: %w", err)
	}
	id := fmt.Sprintf("%s-%d-%s", runtime.GOOS, time.Now().UnixMilli(), suffix)

	if err := r.Set(ctx, KeyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}
