package db

import (
	"context"
	"database/sql"

	"github.com/trueheartapps/versesync/internal/server/sessions"
	"github.com/trueheartapps/versesync/internal/server/syncdata"
	"github.com/trueheartapps/versesync/internal/server/users"
)

// InMemoryRepositoryManager keeps everything in process memory. Useful for
// tests and for trying the server out without postgres.
type InMemoryRepositoryManager struct {
	users     users.Repository
	sessions  sessions.Repository
	snapshots syncdata.SnapshotStore
	events    syncdata.EventRepository
}

func (m InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m InMemoryRepositoryManager) Sessions() sessions.Repository {
	return m.sessions
}

func (m InMemoryRepositoryManager) Snapshots() syncdata.SnapshotStore {
	return m.snapshots
}

func (m InMemoryRepositoryManager) Events() syncdata.EventRepository {
	return m.events
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return InMemoryRepositoryManager{
		users:     users.NewMemoryRepository(),
		sessions:  sessions.NewMemoryRepository(),
		snapshots: syncdata.NewMemorySnapshotStore(),
		events:    syncdata.NewMemoryEventRepository(),
	}
}
