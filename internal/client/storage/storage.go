// Package storage opens the client database, applies migrations, and wires
// the repositories together. It also owns the bridge between the
// category-scoped store layout and the canonical Snapshot value the
// reconciliation engine operates on.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/trueheartapps/versesync/internal/client/migrations"
	"github.com/trueheartapps/versesync/internal/client/repositories/annotations"
	"github.com/trueheartapps/versesync/internal/client/repositories/metadata"
	"github.com/trueheartapps/versesync/internal/client/repositories/tombstones"
)

type Repositories struct {
	Annotations annotations.Repository
	Metadata    metadata.Repository
	Tombstones  tombstones.Repository

	db *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Annotations: annotations.NewSQLiteRepository(db),
		Metadata:    metadata.NewSQLiteRepository(db),
		Tombstones:  tombstones.NewSQLiteRepository(db),
		db:          db,
	}, nil
}

func (r *Repositories) Close() error {
	return r.db.Close()
}
