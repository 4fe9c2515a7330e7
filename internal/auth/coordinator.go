// Package auth owns the authentication session: login, signup, logout, and
// startup validation. Everything that used to be ambient global state in the
// web app (default headers, session flags) lives behind this coordinator and
// is injected into the code that needs it.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/pkg/client"
	"github.com/nexapdf/nexa/pkg/domain"
)

// Coordinator drives auth flows and broadcasts auth-state changes. It owns
// the token store; the HTTP client reads tokens through it.
type Coordinator struct {
	client  *client.Client
	tokens  *store.TokenStore
	session *store.SessionStore
	bus     *notify.Bus

	mu   sync.Mutex
	user *domain.User
}

// NewCoordinator builds the coordinator and its API client. A failed token
// refresh anywhere in the client invalidates the session here.
func NewCoordinator(apiURL string, tokens *store.TokenStore, session *store.SessionStore, bus *notify.Bus, opts ...client.Option) *Coordinator {
	a := &Coordinator{
		tokens:  tokens,
		session: session,
		bus:     bus,
	}
	opts = append(opts, client.WithSessionExpiredHook(a.sessionExpired))
	a.client = client.New(apiURL, tokens, opts...)
	return a
}

// Client returns the API client bound to this session.
func (a *Coordinator) Client() *client.Client { return a.client }

// User returns the authenticated user, or nil for guests.
func (a *Coordinator) User() *domain.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Authenticated reports whether a user session is active.
func (a *Coordinator) Authenticated() bool { return a.User() != nil }

// Login authenticates with username and password. On success the token pair
// is stored, guest state is cleared, and an auth-changed event is broadcast.
// On failure the backend's error payload is returned unchanged.
func (a *Coordinator) Login(ctx context.Context, username, password string) (*domain.User, error) {
	resp, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return a.establish(resp, "login")
}

// Signup registers an account. Same contract as Login.
func (a *Coordinator) Signup(ctx context.Context, req client.SignupRequest) (*domain.User, error) {
	resp, err := a.client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.establish(resp, "signup")
}

func (a *Coordinator) establish(resp *client.AuthResponse, action string) (*domain.User, error) {
	if err := a.tokens.Save(resp.Tokens); err != nil {
		return nil, err
	}
	// Authenticated state supersedes guest state: no stale guest banners.
	a.session.SetGuestMode(false) //nolint:errcheck // state file write is best-effort
	a.session.SetWelcomeSeen(true) //nolint:errcheck

	user := resp.User
	a.mu.Lock()
	a.user = &user
	a.mu.Unlock()

	a.bus.PublishAuthChanged(notify.AuthChange{User: &user, Action: action})
	return &user, nil
}

// Logout tears the session down. The backend call is best-effort — a network
// failure never leaves tokens or guest counters behind locally.
func (a *Coordinator) Logout(ctx context.Context) {
	if refresh := a.tokens.RefreshToken(); refresh != "" {
		if err := a.client.Logout(ctx, refresh); err != nil {
			// Still reset the anonymous session record.
			a.client.ResetGuestSession(ctx) //nolint:errcheck
		}
	} else {
		a.client.ResetGuestSession(ctx) //nolint:errcheck
	}

	// Local clear is unconditional.
	a.tokens.Clear()  //nolint:errcheck
	a.session.Clear() //nolint:errcheck

	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()

	a.bus.PublishAuthChanged(notify.AuthChange{User: nil, Action: "logout"})
	a.bus.PublishUsageReset(notify.UsageReset{Reason: "logout"})
}

// Bootstrap validates a stored token on startup by fetching the profile. A
// 401 goes through the client's single refresh-and-retry; any failure after
// that clears the tokens silently and the app proceeds as a guest.
func (a *Coordinator) Bootstrap(ctx context.Context) *domain.User {
	if a.tokens.AccessToken() == "" {
		return nil
	}
	user, err := a.client.Me(ctx)
	if err != nil {
		a.tokens.Clear() //nolint:errcheck
		return nil
	}

	// A valid session makes the guest record irrelevant.
	a.session.SetGuestMode(false) //nolint:errcheck

	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return user
}

// sessionExpired runs after a failed refresh has already cleared the tokens.
func (a *Coordinator) sessionExpired() {
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
	a.bus.PublishAuthChanged(notify.AuthChange{User: nil, Action: "expired"})
}

// AccessTokenExpiry decodes the access token's exp claim for display. The
// signature is not verified; the backend remains the authority.
func (a *Coordinator) AccessTokenExpiry() (time.Time, bool) {
	tok := a.tokens.AccessToken()
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
