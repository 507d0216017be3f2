// Package autosync runs synchronization in the background: an immediate
// round on startup, a periodic poll, and debounced rounds scheduled after
// local edits. Overlapping rounds never run; a round already in flight
// absorbs any trigger that arrives while it runs.
package autosync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trueheartapps/versesync/internal/client/reconcile"
	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/logging"
)

// State describes the orchestrator's lifecycle for UI consumers.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateConnecting    State = "connecting"
	StateSyncing       State = "syncing"
	StateConnected     State = "connected"
	StateDisconnected  State = "disconnected"
	StateError         State = "error"
)

// Syncer performs one synchronization round.
type Syncer interface {
	Sync(ctx context.Context) (reconcile.Report, error)
}

// Orchestrator owns the background sync loop.
type Orchestrator struct {
	syncer   Syncer
	logger   logging.Logger
	poll     time.Duration
	debounce time.Duration

	// syncMu makes rounds non-reentrant. Triggers that find it held are
	// dropped; the running round already covers their changes or the
	// debounce re-arms.
	syncMu sync.Mutex

	mu      sync.Mutex
	state   State
	onState func(State)
	timer   *time.Timer

	// pending holds the reason of a debounce trigger that fired while a
	// round was in flight; the debounce re-arms once that round finishes.
	pending string

	offlineNotice sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(syncer Syncer, logger logging.Logger, poll, debounce time.Duration) *Orchestrator {
	return &Orchestrator{
		syncer:   syncer,
		logger:   logger,
		poll:     poll,
		debounce: debounce,
		state:    StateUninitialized,
	}
}

// OnStateChange registers a callback invoked on every state transition.
// Must be called before Start.
func (o *Orchestrator) OnStateChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onState = fn
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	if o.state == s {
		o.mu.Unlock()
		return
	}
	o.state = s
	fn := o.onState
	o.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start launches the background loop: one immediate round, then one round
// per poll interval. It returns immediately.
func (o *Orchestrator) Start(ctx context.Context) {
	o.setState(StateInitializing)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	o.setState(StateReady)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		o.runRound(ctx, "startup")

		ticker := time.NewTicker(o.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.runRound(ctx, "poll")
			}
		}
	}()
}

// Stop cancels the loop and any armed debounce timer, then waits for the
// in-flight round to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pending = ""
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
}

// ScheduleSync arms (or re-arms) the debounce timer: the round runs once
// edits stop arriving for the debounce window. Callers use it after every
// local mutation.
func (o *Orchestrator) ScheduleSync(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		o.debounced(reason)
	})
}

// debounced is the timer path. Unlike the poll, a trigger that fires while
// a round is in flight is not dropped: it is parked and the debounce
// re-arms once the running round completes, so the edit still uploads
// without waiting for the next poll tick.
func (o *Orchestrator) debounced(reason string) {
	if !o.syncMu.TryLock() {
		o.mu.Lock()
		o.pending = reason
		o.mu.Unlock()
		return
	}
	defer o.rearmIfPending()
	defer o.syncMu.Unlock()

	ctx := context.Background()
	if _, err := o.round(ctx, reason); err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Error(ctx, "background sync failed", "reason", reason, "error", err)
	}
}

func (o *Orchestrator) rearmIfPending() {
	o.mu.Lock()
	reason := o.pending
	o.pending = ""
	o.mu.Unlock()

	if reason != "" {
		o.ScheduleSync(reason)
	}
}

// ImmediateSync cancels any armed debounce timer and runs a round now,
// synchronously. A round already in flight is not doubled; the call then
// returns an empty report.
func (o *Orchestrator) ImmediateSync(ctx context.Context, reason string) (reconcile.Report, error) {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.mu.Unlock()

	if !o.syncMu.TryLock() {
		o.logger.Debug(ctx, "sync already in progress", "reason", reason)
		return reconcile.Report{}, nil
	}
	defer o.rearmIfPending()
	defer o.syncMu.Unlock()

	return o.round(ctx, reason)
}

// runRound is the trigger path for background rounds: skip when one is
// already running, log errors, never propagate them.
func (o *Orchestrator) runRound(ctx context.Context, reason string) {
	if !o.syncMu.TryLock() {
		return
	}
	defer o.rearmIfPending()
	defer o.syncMu.Unlock()

	if _, err := o.round(ctx, reason); err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Error(ctx, "background sync failed", "reason", reason, "error", err)
	}
}

func (o *Orchestrator) round(ctx context.Context, reason string) (reconcile.Report, error) {
	o.setState(StateConnecting)
	o.setState(StateSyncing)

	report, err := o.syncer.Sync(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			o.offlineNotice.Do(func() {
				o.logger.Info(ctx, "not signed in, changes are saved locally and will sync after login")
			})
			o.setState(StateDisconnected)
			return reconcile.Report{}, err
		}
		o.setState(StateError)
		return reconcile.Report{}, err
	}

	o.logger.Debug(ctx, "sync round finished", "reason", reason, "deleted", report.Total())
	o.setState(StateConnected)
	return report, nil
}
