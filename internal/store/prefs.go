package store

import (
	"path/filepath"
	"sync"
)

type prefsData struct {
	Theme string `json:"theme,omitempty"`
}

// PrefsStore holds UI preferences in prefs.json. Unlike the session store,
// preferences survive logout.
type PrefsStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   prefsData
}

// NewPrefsStore creates a preferences store rooted at dir.
func NewPrefsStore(dir string) *PrefsStore {
	return &PrefsStore{path: filepath.Join(dir, "prefs.json")}
}

func (s *PrefsStore) load() {
	if s.loaded {
		return
	}
	_, _ = readJSON(s.path, &s.data) //nolint:errcheck // absent prefs use defaults
	s.loaded = true
}

// Theme returns the stored theme name, or "" for the default.
func (s *PrefsStore) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.data.Theme
}

// SetTheme stores the theme name.
func (s *PrefsStore) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.Theme = theme
	return s.save()
}

func (s *PrefsStore) save() error {
	return writeJSON(s.path, s.data)
}
