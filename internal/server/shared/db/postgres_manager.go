package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/trueheartapps/versesync/internal/server/migrations"
	"github.com/trueheartapps/versesync/internal/server/sessions"
	"github.com/trueheartapps/versesync/internal/server/syncdata"
	"github.com/trueheartapps/versesync/internal/server/users"
)

type PostgresRepositoryManager struct {
	db        *sql.DB
	users     users.Repository
	sessions  sessions.Repository
	snapshots syncdata.SnapshotStore
	events    syncdata.EventRepository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return m.sessions
}

func (m *PostgresRepositoryManager) Snapshots() syncdata.SnapshotStore {
	return m.snapshots
}

func (m *PostgresRepositoryManager) Events() syncdata.EventRepository {
	return m.events
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

// NewPostgresRepositoryManager opens the database, builds the repositories
// and applies migrations. snapshots may be nil, in which case snapshot blobs
// live in postgres alongside everything else; pass an S3 store to keep them
// in object storage instead.
func NewPostgresRepositoryManager(dsn string, snapshots syncdata.SnapshotStore) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	userRepo, err := users.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("user repo creation error: %w", err)
	}

	sessionRepo, err := sessions.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("session repo creation error: %w", err)
	}

	if snapshots == nil {
		snapshots, err = syncdata.NewPostgresSnapshotStore(db)
		if err != nil {
			return nil, fmt.Errorf("snapshot store creation error: %w", err)
		}
	}

	events, err := syncdata.NewPostgresEventRepository(db)
	if err != nil {
		return nil, fmt.Errorf("event repo creation error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:        db,
		users:     userRepo,
		sessions:  sessionRepo,
		snapshots: snapshots,
		events:    events,
	}

	err = m.RunMigrations(context.Background())
	if err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
