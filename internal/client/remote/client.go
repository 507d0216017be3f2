// Package remote implements the sync backend client: snapshot load/save,
// the deletion event log, and session management, all over JSON HTTP.
package remote

import (
	"context"

	"github.com/trueheartapps/versesync/internal/annot"
)

// CheckResult describes the remote snapshot without transferring it. The
// empty-result guard uses it to decide whether a re-fetch is warranted.
type CheckResult struct {
	Exists    bool
	SizeBytes int64
}

// EventsPage is one page of the remote event log.
type EventsPage struct {
	Events     []annot.Event
	NextCursor int64
}

// Session identifies an authenticated user.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// Client is the remote surface the sync core consumes.
type Client interface {
	// Load fetches the remote snapshot. A nil result without error means
	// no data has been synced yet.
	Load(ctx context.Context) (*annot.Snapshot, error)

	// Save uploads a snapshot, replacing the previous one.
	Save(ctx context.Context, s annot.Snapshot) error

	// AppendEvents appends deletion events to the remote event log.
	AppendEvents(ctx context.Context, events []annot.DeletionEvent) error

	// FetchEvents reads the event log from the given cursor.
	FetchEvents(ctx context.Context, since int64, limit int) (EventsPage, error)

	// Check reports whether a remote snapshot exists and how large it is.
	Check(ctx context.Context) (CheckResult, error)

	// Register creates an account and opens a session.
	Register(ctx context.Context, email, password string) (Session, error)

	// Login opens a session.
	Login(ctx context.Context, email, password string) (Session, error)

	// Logout closes the current session.
	Logout(ctx context.Context) error

	// Validate checks a stored token and restores the session state.
	Validate(ctx context.Context) (Session, error)

	// SetToken installs a previously persisted session token.
	SetToken(token string)

	// IsAuthenticated reports whether a session token is installed.
	IsAuthenticated() bool
}
