// Package db wires the server repositories to a storage backend and applies
// migrations where the backend needs them.
package db

import (
	"context"
	"database/sql"

	"github.com/trueheartapps/versesync/internal/server/sessions"
	"github.com/trueheartapps/versesync/internal/server/syncdata"
	"github.com/trueheartapps/versesync/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Sessions() sessions.Repository
	Snapshots() syncdata.SnapshotStore
	Events() syncdata.EventRepository
}
