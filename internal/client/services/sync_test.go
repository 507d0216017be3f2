package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/client/reconcile"
	"github.com/trueheartapps/versesync/internal/client/remote"
	"github.com/trueheartapps/versesync/internal/client/repositories/metadata"
	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/logging"
)

func TestSync_Unauthenticated(t *testing.T) {
	repos := setupRepos(t)
	client := &fakeClient{}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err := svc.Sync(context.Background())
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSync_MergesRemoteAndUploads(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	annSvc := NewAnnotationService(repos, nil)
	require.NoError(t, annSvc.SetBookmark(ctx, "1", "2", "3"))

	rs := annot.NewSnapshot()
	rs.Notes["4:5:6"] = annot.Note{Book: "4", Chapter: "5", Verse: "6", Text: "remote note", Timestamp: time.Now().UTC()}
	rs.SyncVersion = 9

	client := &fakeClient{token: "tok", Remote: &rs, Cursor: 17}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	// both sides present locally after the round
	s, err := annSvc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, s.Bookmarks, "1:2:3")
	assert.Contains(t, s.Notes, "4:5:6")

	// the merged snapshot went up with a bumped version
	require.Len(t, client.Saved, 1)
	assert.Equal(t, int64(10), client.Saved[0].SyncVersion)
	assert.Contains(t, client.Saved[0].Bookmarks, "1:2:3")

	// bookkeeping persisted
	cursor, err := repos.Metadata.Get(ctx, metadata.KeyEventCursor)
	require.NoError(t, err)
	assert.Equal(t, "17", string(cursor))

	last, err := svc.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestSync_UploadsPendingDeletions(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	annSvc := NewAnnotationService(repos, nil)
	require.NoError(t, annSvc.SetBookmark(ctx, "1", "2", "3"))
	require.NoError(t, annSvc.SetNote(ctx, "9", "9", "9", "keep me"))
	require.NoError(t, annSvc.Delete(ctx, annot.TargetBookmark, "1:2:3"))

	client := &fakeClient{token: "tok"}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	require.Len(t, client.Appended, 1)
	assert.Equal(t, "1:2:3", client.Appended[0].ID)

	// queue drained after the successful round
	pending, err := repos.Tombstones.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the event travels in the snapshot too
	require.Len(t, client.Saved, 1)
	require.Len(t, client.Saved[0].DeletionEvents, 1)
}

func TestSync_FailureRequeuesPending(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	annSvc := NewAnnotationService(repos, nil)
	require.NoError(t, annSvc.SetBookmark(ctx, "1", "2", "3"))
	require.NoError(t, annSvc.Delete(ctx, annot.TargetBookmark, "1:2:3"))

	client := &fakeClient{token: "tok", AppendErr: errors.New("network down")}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err := svc.Sync(ctx)
	require.Error(t, err)

	pending, err := repos.Tombstones.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1:2:3", pending[0].ID)
}

func TestSync_LegacyPendingQueueIsMigrated(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	annSvc := NewAnnotationService(repos, nil)
	require.NoError(t, annSvc.SetNote(ctx, "9", "9", "9", "keep me"))

	legacy := []map[string]any{{
		"id":        "1:2:3",
		"type":      "bookmark",
		"deletedAt": time.Now().UnixMilli(),
		"deviceId":  "web-123-abc",
	}}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, repos.Metadata.Set(ctx, metadata.KeyLegacyPending, raw))

	client := &fakeClient{token: "tok"}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	require.Len(t, client.Appended, 1)
	assert.Equal(t, "1:2:3", client.Appended[0].ID)
	assert.Equal(t, annot.TargetBookmark, client.Appended[0].Target)

	migrated, err := repos.Metadata.Get(ctx, metadata.KeyLegacyPending)
	require.NoError(t, err)
	assert.Empty(t, migrated)
}

func TestSync_RemoteDeletionReported(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	annSvc := NewAnnotationService(repos, nil)
	require.NoError(t, annSvc.SetBookmark(ctx, "1", "2", "3"))
	require.NoError(t, annSvc.SetNote(ctx, "9", "9", "9", "keep me"))

	rs := annot.NewSnapshot()
	rs.DeletionEvents = []annot.DeletionEvent{{
		EventID: "e1", Target: annot.TargetBookmark, ID: "1:2:3",
		CreatedAt: time.Now().Add(time.Hour).UTC(), DeviceID: "other",
	}}

	client := &fakeClient{token: "tok", Remote: &rs}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Total())

	s, err := annSvc.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotContains(t, s.Bookmarks, "1:2:3")
	assert.Contains(t, s.Notes, "9:9:9")
}

func TestSync_EmptySnapshotRejectedAdoptsRemote(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	rs := annot.NewSnapshot()
	rs.Notes["4:5:6"] = annot.Note{Book: "4", Chapter: "5", Verse: "6", Text: "survives", Timestamp: time.Now().UTC()}

	client := &fakeClient{token: "tok", Remote: &rs, SaveErr: common.ErrEmptySnapshotRejected}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	// The fake never stores rejected saves, so a rejection leaves the
	// remote note as the state the client must fall back to.
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	s, err := NewAnnotationService(repos, nil).Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, s.Notes, "4:5:6")
}

func TestSync_EmptyGuardRefetchesRemote(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	// First load yields a snapshot whose replace event wipes everything;
	// the re-fetch returns the real data.
	wipe, err := json.Marshal(map[string]any{})
	require.NoError(t, err)

	good := annot.NewSnapshot()
	good.Notes["4:5:6"] = annot.Note{Book: "4", Chapter: "5", Verse: "6", Text: "real data", Timestamp: time.Now().UTC()}

	client := &fakeClient{
		token:        "tok",
		Events:       []annot.Event{{EventID: "e1", Type: annot.EventReplace, Payload: wipe, CreatedAt: annot.EventTime{Time: time.Now().UTC()}}},
		ReloadRemote: &good,
		CheckRet:     remote.CheckResult{Exists: true, SizeBytes: 1024},
	}
	svc := NewSyncService(repos, client, reconcile.NewEngine(), logging.NewJSON(io.Discard))

	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	s, err := NewAnnotationService(repos, nil).Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, s.Notes, "4:5:6")
	assert.GreaterOrEqual(t, client.LoadCalls, 2)
}
