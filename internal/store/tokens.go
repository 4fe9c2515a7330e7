package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/nexapdf/nexa/pkg/domain"
)

// EnvAccessToken overrides the stored access token when set. Read-only:
// refresh and logout never write back to the environment.
const EnvAccessToken = "NEXA_ACCESS_TOKEN"

// TokenStore keeps the access/refresh pair in tokens.json (0600). It
// implements client.TokenSource.
type TokenStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	pair   domain.TokenPair
}

// NewTokenStore creates a token store rooted at dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{path: filepath.Join(dir, "tokens.json")}
}

func (s *TokenStore) load() {
	if s.loaded {
		return
	}
	_, _ = readJSON(s.path, &s.pair) //nolint:errcheck // absent tokens mean logged out
	s.loaded = true
}

// AccessToken returns the current access token, preferring the environment
// override.
func (s *TokenStore) AccessToken() string {
	if tok := os.Getenv(EnvAccessToken); tok != "" {
		return tok
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.pair.Access
}

// RefreshToken returns the current refresh token.
func (s *TokenStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.pair.Refresh
}

// Save stores a new token pair, replacing any existing one.
func (s *TokenStore) Save(pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.loaded = true
	return writeJSON(s.path, s.pair)
}

// SetAccessToken replaces the access token in place, keeping the refresh
// token. Called by the client after a successful refresh exchange.
func (s *TokenStore) SetAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.pair.Access = access
	return writeJSON(s.path, s.pair)
}

// Clear removes both tokens and the backing file.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = domain.TokenPair{}
	s.loaded = true
	return removeFile(s.path)
}
