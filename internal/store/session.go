package store

import (
	"path/filepath"
	"sync"
)

// sessionData mirrors the session-scoped keys of the web app: guest mode,
// welcome flag, and the daily guest operation counter with its date stamp.
type sessionData struct {
	GuestMode      bool   `json:"guest_mode,omitempty"`
	HasSeenWelcome bool   `json:"has_seen_welcome,omitempty"`
	OperationsUsed int    `json:"operations_used,omitempty"`
	OperationsDate string `json:"operations_date,omitempty"`
	RefreshUsage   bool   `json:"refresh_usage,omitempty"`
}

// SessionStore holds guest bookkeeping in session.json. Logout clears it
// wholesale; login clears the guest usage keys.
type SessionStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   sessionData
}

// NewSessionStore creates a session store rooted at dir.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{path: filepath.Join(dir, "session.json")}
}

func (s *SessionStore) load() {
	if s.loaded {
		return
	}
	_, _ = readJSON(s.path, &s.data) //nolint:errcheck // absent session means fresh guest
	s.loaded = true
}

func (s *SessionStore) save() error {
	return writeJSON(s.path, s.data)
}

// GuestMode reports whether the visitor chose to continue without an account.
func (s *SessionStore) GuestMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.data.GuestMode
}

// SetGuestMode toggles guest mode. Turning it off also drops the guest usage
// keys so no stale counter survives.
func (s *SessionStore) SetGuestMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.GuestMode = on
	if !on {
		s.data.OperationsUsed = 0
		s.data.OperationsDate = ""
	}
	return s.save()
}

// HasSeenWelcome reports whether the welcome prompt was already shown.
func (s *SessionStore) HasSeenWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.data.HasSeenWelcome
}

// SetWelcomeSeen records that the welcome prompt was shown.
func (s *SessionStore) SetWelcomeSeen(seen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.HasSeenWelcome = seen
	return s.save()
}

// Operations returns the stored guest counter and its date stamp.
func (s *SessionStore) Operations() (used int, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.data.OperationsUsed, s.data.OperationsDate
}

// SetOperations stores the guest counter and date stamp.
func (s *SessionStore) SetOperations(used int, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.OperationsUsed = used
	s.data.OperationsDate = date
	return s.save()
}

// ClearGuestUsage drops the counter and date keys, keeping the rest of the
// session. Fired on login and on usage-reset events.
func (s *SessionStore) ClearGuestUsage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.OperationsUsed = 0
	s.data.OperationsDate = ""
	return s.save()
}

// SetRefreshUsage flags that the usage display should re-fetch on next view.
func (s *SessionStore) SetRefreshUsage(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.data.RefreshUsage = on
	return s.save()
}

// ConsumeRefreshUsage returns the refresh flag and clears it.
func (s *SessionStore) ConsumeRefreshUsage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	if !s.data.RefreshUsage {
		return false
	}
	s.data.RefreshUsage = false
	_ = s.save() //nolint:errcheck // flag consumption is best-effort
	return true
}

// Clear removes every session-scoped key and the backing file. Logout calls
// this unconditionally, whatever the backend said.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = sessionData{}
	s.loaded = true
	return removeFile(s.path)
}
