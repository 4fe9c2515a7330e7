package notify

import (
	"os"
	"testing"
	"time"

	"github.com/nexapdf/nexa/pkg/domain"
)

func TestBusAuthChangedDeliversSynchronously(t *testing.T) {
	bus := New()
	var got AuthChange
	if err := bus.SubscribeAuthChanged(func(c AuthChange) { got = c }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	user := &domain.User{ID: 1, Username: "dana"}
	bus.PublishAuthChanged(AuthChange{User: user, Action: "login"})

	if got.User == nil || got.User.Username != "dana" {
		t.Errorf("subscriber saw %+v", got)
	}
	if got.Action != "login" {
		t.Errorf("Action = %q", got.Action)
	}
}

func TestBusOperationAssignsIDAndTimestamp(t *testing.T) {
	bus := New()
	var got domain.OperationEvent
	bus.SubscribeOperation(func(ev domain.OperationEvent) { got = ev }) //nolint:errcheck

	bus.PublishOperation(domain.OperationEvent{Type: domain.OpMerge, Success: true})

	if got.ID == "" {
		t.Error("expected an assigned event ID")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected an assigned timestamp")
	}
	if got.Type != domain.OpMerge || !got.Success {
		t.Errorf("event = %+v", got)
	}
}

func TestBusRepublishDeduplicatesByID(t *testing.T) {
	bus := New()
	count := 0
	bus.SubscribeOperation(func(domain.OperationEvent) { count++ }) //nolint:errcheck

	ev := domain.OperationEvent{ID: "ev-1", Type: domain.OpSplit, Success: true, Timestamp: time.Now()}
	if !bus.republish(ev) {
		t.Fatal("first republish should deliver")
	}
	if bus.republish(ev) {
		t.Error("second republish of same ID should be dropped")
	}
	if count != 1 {
		t.Errorf("subscriber fired %d times, want 1", count)
	}
}

func TestBusOwnPublishNotEchoedByRepublish(t *testing.T) {
	bus := New()
	count := 0
	bus.SubscribeOperation(func(domain.OperationEvent) { count++ }) //nolint:errcheck

	var published domain.OperationEvent
	bus.SubscribeOperation(func(ev domain.OperationEvent) { published = ev }) //nolint:errcheck
	bus.PublishOperation(domain.OperationEvent{Type: domain.OpCompress, Success: true})

	// The marker watcher reading our own write must not double-deliver.
	if bus.republish(published) {
		t.Error("republish of self-published event should be dropped")
	}
	if count != 1 {
		t.Errorf("subscriber fired %d times, want 1", count)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewMarker(dir)

	if _, ok := m.Read(); ok {
		t.Error("expected ok=false for absent marker")
	}

	ev := domain.OperationEvent{ID: "op-7", Type: domain.OpRotate, Success: true, Timestamp: time.Now().UTC()}
	if err := m.Write(ev); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, ok := m.Read()
	if !ok {
		t.Fatal("expected ok=true after write")
	}
	if got.ID != "op-7" || got.Type != domain.OpRotate || !got.Success {
		t.Errorf("Read() = %+v", got)
	}
}

func TestMarkerCorruptReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	m := NewMarker(dir)
	if err := os.WriteFile(m.Path(), []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Read(); ok {
		t.Error("expected ok=false for corrupt marker")
	}
}

func TestWatcherRepublishesForeignEvents(t *testing.T) {
	dir := t.TempDir()

	receiver := New()
	events := make(chan domain.OperationEvent, 4)
	receiver.SubscribeOperation(func(ev domain.OperationEvent) { events <- ev }) //nolint:errcheck

	w, err := WatchMarker(dir, receiver)
	if err != nil {
		t.Fatalf("WatchMarker() error: %v", err)
	}
	defer w.Close() //nolint:errcheck

	// A second instance publishes through its own bus and marker.
	sender := New().WithMarker(dir)
	sender.PublishOperation(domain.OperationEvent{Type: domain.OpWatermark, Success: true})

	select {
	case ev := <-events:
		if ev.Type != domain.OpWatermark {
			t.Errorf("republished event = %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never republished the foreign event")
	}
}
