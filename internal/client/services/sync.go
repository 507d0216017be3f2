package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/client/reconcile"
	"github.com/trueheartapps/versesync/internal/client/remote"
	"github.com/trueheartapps/versesync/internal/client/repositories/metadata"
	"github.com/trueheartapps/versesync/internal/client/storage"
	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/logging"
)

const eventFetchLimit = 500

// reloadBackoff drives the one extra fetch the empty-result guard allows
// before giving up on reconstructing the remote snapshot.
const reloadBackoff = 350 * time.Millisecond

// SyncService runs one full synchronization round: upload queued deletion
// events, fetch the remote snapshot and event log, merge, upload the result,
// and write the merged state back to the local store.
type SyncService struct {
	repos  *storage.Repositories
	client remote.Client
	engine *reconcile.Engine
	logger logging.Logger
	now    func() time.Time
}

func NewSyncService(repos *storage.Repositories, client remote.Client, engine *reconcile.Engine, logger logging.Logger) *SyncService {
	return &SyncService{
		repos:  repos,
		client: client,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// Sync performs one round trip against the backend. It returns the merge
// report so callers can surface which records tombstones removed. Pending
// deletion events drained from the queue are re-queued if the round fails,
// so a lost connection never loses a deletion.
func (s *SyncService) Sync(ctx context.Context) (reconcile.Report, error) {
	if !s.client.IsAuthenticated() {
		return reconcile.Report{}, common.ErrorUnauthorized
	}

	deviceID, err := s.repos.Metadata.GetOrCreateDeviceID(ctx)
	if err != nil {
		return reconcile.Report{}, err
	}

	pending, err := s.collectPending(ctx)
	if err != nil {
		return reconcile.Report{}, err
	}

	report, err := s.run(ctx, deviceID, pending)
	if err != nil {
		s.requeue(ctx, pending)
		return reconcile.Report{}, err
	}
	return report, nil
}

// collectPending drains the tombstone queue and folds in deletion events a
// previous app version left under its own metadata key.
func (s *SyncService) collectPending(ctx context.Context) ([]annot.DeletionEvent, error) {
	pending, err := s.repos.Tombstones.DrainPending(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.repos.Metadata.Get(ctx, metadata.KeyLegacyPending)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var legacy []annot.DeletionEvent
		if err := json.Unmarshal(raw, &legacy); err != nil {
			s.logger.Warn(ctx, "discarding undecodable legacy deletion queue", "error", err)
		} else {
			pending = append(pending, legacy...)
		}
		if err := s.repos.Metadata.Delete(ctx, metadata.KeyLegacyPending); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

func (s *SyncService) requeue(ctx context.Context, pending []annot.DeletionEvent) {
	for _, ev := range pending {
		if err := s.repos.Tombstones.Enqueue(ctx, ev); err != nil {
			s.logger.Error(ctx, "failed to re-queue deletion event", "event_id", ev.EventID, "error", err)
		}
	}
}

func (s *SyncService) run(ctx context.Context, deviceID string, pending []annot.DeletionEvent) (reconcile.Report, error) {
	if len(pending) > 0 {
		if err := s.client.AppendEvents(ctx, pending); err != nil {
			return reconcile.Report{}, fmt.Errorf("failed to upload deletion events: %w", err)
		}
	}

	remoteSnap, err := s.loadRemote(ctx)
	if err != nil {
		return reconcile.Report{}, err
	}

	cursor, err := s.eventCursor(ctx)
	if err != nil {
		return reconcile.Report{}, err
	}
	page, err := s.client.FetchEvents(ctx, cursor, eventFetchLimit)
	if err != nil {
		return reconcile.Report{}, fmt.Errorf("failed to fetch event log: %w", err)
	}

	local, err := storage.LoadSnapshot(ctx, s.repos.Annotations)
	if err != nil {
		return reconcile.Report{}, err
	}

	now := s.now().UTC()
	save := true
	merged, report, err := s.engine.Merge(local, remoteSnap, pending, page.Events, deviceID, now)
	if errors.Is(err, reconcile.ErrSuspectEmpty) {
		merged, report, save, err = s.recoverFromEmpty(ctx, local, remoteSnap, pending, page.Events, deviceID, now)
	}
	if err != nil {
		return reconcile.Report{}, err
	}

	if save {
		if err := s.client.Save(ctx, merged); err != nil {
			if !errors.Is(err, common.ErrEmptySnapshotRejected) {
				return reconcile.Report{}, fmt.Errorf("failed to save snapshot: %w", err)
			}
			// The backend refused an all-empty snapshot. Adopt the remote
			// state instead of wiping it.
			s.logger.Warn(ctx, "empty snapshot rejected by server, adopting remote state")
			merged = remoteSnap.Normalize()
			report = reconcile.Report{}
		}
	}

	if err := storage.ApplySnapshot(ctx, s.repos.Annotations, merged); err != nil {
		return reconcile.Report{}, err
	}

	if err := s.finishBookkeeping(ctx, page.NextCursor, now); err != nil {
		return reconcile.Report{}, err
	}

	s.logger.Info(ctx, "sync complete",
		"records", merged.Count(), "deleted", report.Total(), "version", merged.SyncVersion)
	return report, nil
}

func (s *SyncService) loadRemote(ctx context.Context) (annot.Snapshot, error) {
	rs, err := s.client.Load(ctx)
	if err != nil {
		return annot.Snapshot{}, fmt.Errorf("failed to load remote snapshot: %w", err)
	}
	if rs == nil {
		return annot.NewSnapshot(), nil
	}
	return *rs, nil
}

// recoverFromEmpty handles a merge that produced an empty snapshot out of
// non-empty remote inputs: confirm with the backend that data really exists,
// re-fetch it once, and merge again. If the result still looks like data
// loss, the remote state is adopted verbatim and the round does not upload.
func (s *SyncService) recoverFromEmpty(
	ctx context.Context,
	local, remoteSnap annot.Snapshot,
	pending []annot.DeletionEvent,
	events []annot.Event,
	deviceID string,
	now time.Time,
) (merged annot.Snapshot, report reconcile.Report, save bool, err error) {
	s.logger.Warn(ctx, "merge produced an empty snapshot, verifying remote state")

	check, err := s.client.Check(ctx)
	if err != nil {
		return annot.Snapshot{}, reconcile.Report{}, false, fmt.Errorf("failed to check remote snapshot: %w", err)
	}
	if !check.Exists || check.SizeBytes == 0 {
		// The backend holds no snapshot to lose, so the remote data the
		// merge saw was inconsistent. Abort the round; the next poll
		// starts over from a clean read.
		return annot.Snapshot{}, reconcile.Report{}, false, reconcile.ErrSuspectEmpty
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(reloadBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		reloaded, err := s.client.Load(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if reloaded == nil || reloaded.Normalize().IsEmpty() {
			return retry.RetryableError(errors.New("remote snapshot still empty"))
		}
		remoteSnap = *reloaded
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "remote snapshot could not be re-fetched, adopting remote state", "error", err)
		return remoteSnap.Normalize(), reconcile.Report{}, false, nil
	}

	merged, report, err = s.engine.Merge(local, remoteSnap, pending, events, deviceID, now)
	if errors.Is(err, reconcile.ErrSuspectEmpty) {
		s.logger.Warn(ctx, "merge still empty after re-fetch, adopting remote state")
		return remoteSnap.Normalize(), reconcile.Report{}, false, nil
	}
	return merged, report, true, err
}

func (s *SyncService) eventCursor(ctx context.Context) (int64, error) {
	raw, err := s.repos.Metadata.Get(ctx, metadata.KeyEventCursor)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, nil
	}
	return cursor, nil
}

func (s *SyncService) finishBookkeeping(ctx context.Context, cursor int64, now time.Time) error {
	if err := s.repos.Metadata.Set(ctx, metadata.KeyEventCursor, []byte(strconv.FormatInt(cursor, 10))); err != nil {
		return err
	}
	return s.repos.Metadata.Set(ctx, metadata.KeyLastSyncTime, []byte(now.Format(time.RFC3339)))
}

// LastSyncTime reports when the last successful round finished, or the zero
// time when the device has never synced.
func (s *SyncService) LastSyncTime(ctx context.Context) (time.Time, error) {
	raw, err := s.repos.Metadata.Get(ctx, metadata.KeyLastSyncTime)
	if err != nil {
		return time.Time{}, err
	}
	if len(raw) == 0 {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}
