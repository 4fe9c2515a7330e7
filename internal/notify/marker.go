package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nexapdf/nexa/pkg/domain"
)

const markerFile = "last_operation.json"

// Marker writes the most recent operation event to a well-known file so
// other running instances of the app (the cross-tab analog) can pick it up.
type Marker struct {
	dir string
}

// NewMarker creates a marker writer rooted at dir.
func NewMarker(dir string) *Marker {
	return &Marker{dir: dir}
}

// Path returns the marker file path.
func (m *Marker) Path() string {
	return filepath.Join(m.dir, markerFile)
}

// Write replaces the marker with ev. The write is atomic (temp file +
// rename) so watchers never observe a partial document.
func (m *Marker) Write(ev domain.OperationEvent) error {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("create marker dir: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal operation event: %w", err)
	}
	tmp := m.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if err := os.Rename(tmp, m.Path()); err != nil {
		return fmt.Errorf("replace marker: %w", err)
	}
	return nil
}

// Read returns the current marker contents, or ok=false when absent or
// unreadable.
func (m *Marker) Read() (domain.OperationEvent, bool) {
	var ev domain.OperationEvent
	data, err := os.ReadFile(m.Path())
	if err != nil {
		return ev, false
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, false
	}
	return ev, ev.ID != ""
}

// Watcher feeds marker-file changes from other instances back into a bus.
type Watcher struct {
	fsw *fsnotify.Watcher
	bus *Bus
	m   *Marker

	done chan struct{}
}

// WatchMarker starts watching the marker directory and republishes foreign
// operation events onto bus. Events this process published itself are
// deduplicated by ID and never re-emitted.
func WatchMarker(dir string, bus *Bus) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create marker dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close() //nolint:errcheck
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:  fsw,
		bus:  bus,
		m:    NewMarker(dir),
		done: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != markerFile {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if opEv, ok := w.m.Read(); ok {
				w.bus.republish(opEv)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors degrade to single-channel delivery, which
			// subscribers already tolerate.
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
