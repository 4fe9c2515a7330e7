// Package notify is the typed fan-out bus every view and tracker hangs off.
// It carries three topics — auth-changed, usage-reset, and
// operation-completed — over two channels: a synchronous in-process event
// bus, and a marker file on disk that reaches other running instances.
// Subscribers must tolerate a notification arriving on either channel first,
// or on only one of them.
package notify

import (
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"github.com/nexapdf/nexa/pkg/domain"
)

const (
	topicAuthChanged   = "auth:changed"
	topicUsageReset    = "usage:reset"
	topicOperationDone = "operation:completed"
)

// AuthChange announces a login, signup, or logout. User is nil after logout.
type AuthChange struct {
	User   *domain.User
	Action string // "login", "signup", "logout"
}

// UsageReset tells usage observers to drop back to the anonymous default.
type UsageReset struct {
	Reason string
}

// Bus is the process-wide notifier. The zero value is not usable; call New.
type Bus struct {
	bus    evbus.Bus
	marker *Marker

	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates a bus with only the in-process channel.
func New() *Bus {
	return &Bus{
		bus:  evbus.New(),
		seen: make(map[string]struct{}),
	}
}

// WithMarker attaches the cross-process channel rooted at dir. Operation
// events published on this bus are also written to the marker file.
func (b *Bus) WithMarker(dir string) *Bus {
	b.marker = NewMarker(dir)
	return b
}

// PublishAuthChanged delivers synchronously to all in-process subscribers
// before returning.
func (b *Bus) PublishAuthChanged(change AuthChange) {
	b.bus.Publish(topicAuthChanged, change)
}

// SubscribeAuthChanged registers fn for auth-changed events.
func (b *Bus) SubscribeAuthChanged(fn func(AuthChange)) error {
	return b.bus.Subscribe(topicAuthChanged, fn)
}

// PublishUsageReset delivers synchronously to all in-process subscribers.
func (b *Bus) PublishUsageReset(reset UsageReset) {
	b.bus.Publish(topicUsageReset, reset)
}

// SubscribeUsageReset registers fn for usage-reset events.
func (b *Bus) SubscribeUsageReset(fn func(UsageReset)) error {
	return b.bus.Subscribe(topicUsageReset, fn)
}

// PublishOperation announces a completed or failed processing call. In-tab
// delivery is synchronous; the cross-process marker write is best-effort.
func (b *Bus) PublishOperation(ev domain.OperationEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.markSeen(ev.ID)
	b.bus.Publish(topicOperationDone, ev)
	if b.marker != nil {
		b.marker.Write(ev) //nolint:errcheck // cross-process channel is best-effort
	}
}

// SubscribeOperation registers fn for operation-completed events.
func (b *Bus) SubscribeOperation(fn func(domain.OperationEvent)) error {
	return b.bus.Subscribe(topicOperationDone, fn)
}

// republish delivers an event received from the marker channel without
// echoing it back to disk. Returns false when the event was already seen.
func (b *Bus) republish(ev domain.OperationEvent) bool {
	if !b.markSeen(ev.ID) {
		return false
	}
	b.bus.Publish(topicOperationDone, ev)
	return true
}

// markSeen records an event ID, returning false if it was already recorded.
// The set is bounded; duplicates older than the window are tolerated by
// idempotent subscribers anyway.
func (b *Bus) markSeen(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.seen[id]; ok {
		return false
	}
	if len(b.seen) >= 256 {
		b.seen = make(map[string]struct{})
	}
	b.seen[id] = struct{}{}
	return true
}
