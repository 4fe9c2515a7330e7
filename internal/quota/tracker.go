// Package quota tracks the daily operation allowance for unauthenticated
// visitors and reconciles the local counter against the backend.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/pkg/domain"
)

// State is the tracker's lifecycle state.
type State int

const (
	// Uninitialized means the stored date has not been checked against today.
	Uninitialized State = iota
	// Tracking means the counter is live and below the limit.
	Tracking
	// LimitReached blocks further operations until the day rolls over or the
	// user authenticates.
	LimitReached
)

// dateLayout stamps the counter with its calendar day. A mismatch with
// today's stamp resets the counter before any read.
const dateLayout = "2006-01-02"

// UsageFetcher is the backend usage query. *client.Client satisfies it.
type UsageFetcher interface {
	Usage(ctx context.Context) (*domain.UsageInfo, error)
}

// defaultReconcileDelays is the re-fetch schedule after an operation. The
// backend's usage write lags its read, so a single immediate fetch can
// observe the pre-operation count; the spread papers over that lag.
var defaultReconcileDelays = []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}

// Tracker is the guest quota state machine.
type Tracker struct {
	session *store.SessionStore
	usage   UsageFetcher

	mu    sync.Mutex
	state State
	used  int
	limit int

	now             func() time.Time
	reconcileDelays []time.Duration
	onChange        func()
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithReconcileDelays replaces the post-operation re-fetch schedule. An
// empty slice disables background reconciliation.
func WithReconcileDelays(delays []time.Duration) Option {
	return func(t *Tracker) { t.reconcileDelays = delays }
}

// WithChangeHook registers a callback fired after any state change.
func WithChangeHook(fn func()) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// NewTracker builds a tracker over the session store. Call Start to load
// state and subscribe to the bus.
func NewTracker(session *store.SessionStore, usage UsageFetcher, opts ...Option) *Tracker {
	t := &Tracker{
		session:         session,
		usage:           usage,
		state:           Uninitialized,
		limit:           domain.GuestDailyLimit,
		now:             time.Now,
		reconcileDelays: defaultReconcileDelays,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start loads the stored counter (resetting it on day rollover) and wires
// the tracker to the bus: auth-changed and usage-reset clear the guest
// record, operation-completed feeds RecordOperation.
func (t *Tracker) Start(bus *notify.Bus) error {
	t.mu.Lock()
	t.ensureTodayLocked()
	t.mu.Unlock()

	if err := bus.SubscribeAuthChanged(t.handleAuthChange); err != nil {
		return err
	}
	if err := bus.SubscribeUsageReset(t.handleUsageReset); err != nil {
		return err
	}
	return bus.SubscribeOperation(t.handleOperation)
}

func (t *Tracker) handleAuthChange(change notify.AuthChange) {
	// Either direction clears the guest record: a user supersedes guest
	// state, and logout returns to a zeroed one.
	t.reset()
}

func (t *Tracker) handleUsageReset(notify.UsageReset) {
	t.reset()
}

func (t *Tracker) handleOperation(ev domain.OperationEvent) {
	t.RecordOperation(ev.Success)
}

func (t *Tracker) reset() {
	t.mu.Lock()
	t.used = 0
	t.state = Tracking
	t.mu.Unlock()
	t.session.ClearGuestUsage() //nolint:errcheck
	t.notifyChange()
}

// ensureTodayLocked loads the stored counter and resets it when the stored
// date differs from today. Idempotent within a day; called before any read.
func (t *Tracker) ensureTodayLocked() {
	today := t.now().Format(dateLayout)
	used, date := t.session.Operations()
	if date != today {
		used = 0
		t.session.SetOperations(0, today) //nolint:errcheck
	}
	t.used = used
	t.updateStateLocked()
}

func (t *Tracker) updateStateLocked() {
	if t.used >= t.limit {
		t.state = LimitReached
	} else {
		t.state = Tracking
	}
}

// RecordOperation registers an attempt's outcome. A no-op unless guest mode
// is active. A success optimistically increments the local counter, then the
// authoritative backend count overwrites it on the reconcile schedule.
func (t *Tracker) RecordOperation(success bool) {
	if !t.session.GuestMode() {
		return
	}

	t.mu.Lock()
	t.ensureTodayLocked()
	if success {
		t.used++
		t.session.SetOperations(t.used, t.now().Format(dateLayout)) //nolint:errcheck
		t.updateStateLocked()
	}
	delays := t.reconcileDelays
	t.mu.Unlock()
	t.notifyChange()

	if !success {
		return
	}
	for _, d := range delays {
		time.AfterFunc(d, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			t.Reconcile(ctx)
		})
	}
	t.session.SetRefreshUsage(true) //nolint:errcheck
}

// Reconcile overwrites local state with the backend's count. Server truth
// wins over the optimistic increment; fetch failures keep the local value.
func (t *Tracker) Reconcile(ctx context.Context) {
	if !t.session.GuestMode() {
		return
	}
	info, err := t.usage.Usage(ctx)
	if err != nil || info.Authenticated() {
		return
	}

	t.mu.Lock()
	t.used = info.OperationsUsed
	if info.OperationsLimit > 0 {
		t.limit = info.OperationsLimit
	}
	t.session.SetOperations(t.used, t.now().Format(dateLayout)) //nolint:errcheck
	t.updateStateLocked()
	t.mu.Unlock()
	t.notifyChange()
}

// CanPerform is the pure gate checked before every processing call: true
// outside guest mode, or while the counter is below the limit.
func (t *Tracker) CanPerform() bool {
	if !t.session.GuestMode() {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureTodayLocked()
	return t.used < t.limit
}

// Remaining returns the operations left today, never negative.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureTodayLocked()
	if r := t.limit - t.used; r > 0 {
		return r
	}
	return 0
}

// Snapshot is the read-only projection the UI renders.
type Snapshot struct {
	GuestMode bool
	Used      int
	Limit     int
	State     State
}

// Snapshot returns the current counters after a day-rollover check.
func (t *Tracker) Snapshot() Snapshot {
	guest := t.session.GuestMode()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureTodayLocked()
	return Snapshot{
		GuestMode: guest,
		Used:      t.used,
		Limit:     t.limit,
		State:     t.state,
	}
}

func (t *Tracker) notifyChange() {
	if t.onChange != nil {
		t.onChange()
	}
}
