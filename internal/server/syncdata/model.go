// Package syncdata owns the server side of synchronization: the per-user
// snapshot blob, the deletion event log, and the rules for accepting them.
package syncdata

import "time"

// SnapshotRecord is one user's stored snapshot for one application. Data is
// the base64 payload exactly as the client uploaded it; the server never
// needs the decoded form after validation.
type SnapshotRecord struct {
	UserID    string
	AppID     string
	Data      string
	SizeBytes int64
	UpdatedAt time.Time
}
