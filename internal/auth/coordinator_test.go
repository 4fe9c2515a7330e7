package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/pkg/client"
	"github.com/nexapdf/nexa/pkg/domain"
)

type fixture struct {
	coord   *Coordinator
	tokens  *store.TokenStore
	session *store.SessionStore
	bus     *notify.Bus
}

func newFixture(t *testing.T, apiURL string) *fixture {
	t.Helper()
	t.Setenv(store.EnvAccessToken, "")
	dir := t.TempDir()
	tokens := store.NewTokenStore(dir)
	session := store.NewSessionStore(dir)
	bus := notify.New()
	return &fixture{
		coord:   NewCoordinator(apiURL, tokens, session, bus),
		tokens:  tokens,
		session: session,
		bus:     bus,
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"user":{"id":1,"username":"dana","email":"dana@example.com"},
			"tokens":{"access":"acc-1","refresh":"ref-1"}
		}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.session.SetGuestMode(true)             //nolint:errcheck
	f.session.SetOperations(5, "2026-08-31") //nolint:errcheck

	var change notify.AuthChange
	f.bus.SubscribeAuthChanged(func(c notify.AuthChange) { change = c }) //nolint:errcheck

	user, err := f.coord.Login(context.Background(), "dana", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if user.Username != "dana" {
		t.Errorf("user = %q", user.Username)
	}
	if !f.coord.Authenticated() {
		t.Error("Authenticated() = false after login")
	}
	if f.tokens.AccessToken() != "acc-1" || f.tokens.RefreshToken() != "ref-1" {
		t.Error("token pair not stored")
	}
	if f.session.GuestMode() {
		t.Error("guest mode survived login")
	}
	if change.Action != "login" || change.User == nil {
		t.Errorf("auth-changed event = %+v", change)
	}
}

func TestLoginFailurePropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"invalid credentials"}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	_, err := f.coord.Login(context.Background(), "dana", "wrong")
	if !client.IsStatus(err, 401) {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if f.coord.Authenticated() {
		t.Error("failed login must not establish a session")
	}
	if f.tokens.AccessToken() != "" {
		t.Error("failed login must not store tokens")
	}
}

func TestSignupEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signup/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"user":{"id":2,"username":"new","email":"new@example.com"},
			"tokens":{"access":"acc-2","refresh":"ref-2"}
		}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	user, err := f.coord.Signup(context.Background(), client.SignupRequest{
		Username: "new", Email: "new@example.com", Password: "pw", Password2: "pw",
	})
	if err != nil {
		t.Fatalf("Signup() error: %v", err)
	}
	if user.ID != 2 {
		t.Errorf("user ID = %d", user.ID)
	}
	if !f.session.HasSeenWelcome() {
		t.Error("signup should mark the welcome prompt seen")
	}
}

func TestLogoutClearsLocallyEvenWhenBackendFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.tokens.Save(domain.TokenPair{Access: "a", Refresh: "r"}) //nolint:errcheck
	f.session.SetGuestMode(true)                               //nolint:errcheck

	var actions []string
	f.bus.SubscribeAuthChanged(func(c notify.AuthChange) { actions = append(actions, c.Action) }) //nolint:errcheck
	resets := 0
	f.bus.SubscribeUsageReset(func(notify.UsageReset) { resets++ }) //nolint:errcheck

	f.coord.Logout(context.Background())

	if f.tokens.AccessToken() != "" || f.tokens.RefreshToken() != "" {
		t.Error("tokens survived logout")
	}
	if f.session.GuestMode() {
		t.Error("session survived logout")
	}
	if f.coord.Authenticated() {
		t.Error("still authenticated after logout")
	}
	if len(actions) != 1 || actions[0] != "logout" {
		t.Errorf("auth-changed actions = %v", actions)
	}
	if resets != 1 {
		t.Errorf("usage-reset events = %d, want 1", resets)
	}
}

func TestLogoutWithoutTokensResetsGuestRecord(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.coord.Logout(context.Background())

	if gotPath != "/auth/guest-reset/" {
		t.Errorf("backend call = %q, want guest-reset", gotPath)
	}
}

func TestBootstrapWithoutTokenSkipsBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called without a stored token")
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if user := f.coord.Bootstrap(context.Background()); user != nil {
		t.Errorf("Bootstrap() = %+v, want nil", user)
	}
}

func TestBootstrapValidSessionRestoresUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stored" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `{"id":3,"username":"back","email":"back@example.com"}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.tokens.Save(domain.TokenPair{Access: "stored", Refresh: "r"}) //nolint:errcheck
	f.session.SetGuestMode(true)                                    //nolint:errcheck

	user := f.coord.Bootstrap(context.Background())
	if user == nil || user.Username != "back" {
		t.Fatalf("Bootstrap() = %+v", user)
	}
	if f.session.GuestMode() {
		t.Error("guest mode survived a valid bootstrap")
	}
}

func TestBootstrapInvalidTokenClearsAndFallsBackToGuest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"expired"}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.tokens.Save(domain.TokenPair{Access: "bad", Refresh: ""}) //nolint:errcheck

	if user := f.coord.Bootstrap(context.Background()); user != nil {
		t.Errorf("Bootstrap() = %+v, want nil", user)
	}
	if f.tokens.AccessToken() != "" {
		t.Error("invalid token survived bootstrap")
	}
	if f.coord.Authenticated() {
		t.Error("coordinator authenticated with invalid token")
	}
}

func TestFailedRefreshBroadcastsExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"expired"}`)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.tokens.Save(domain.TokenPair{Access: "stale", Refresh: "dead"}) //nolint:errcheck

	var actions []string
	f.bus.SubscribeAuthChanged(func(c notify.AuthChange) { actions = append(actions, c.Action) }) //nolint:errcheck

	if _, err := f.coord.Client().Me(context.Background()); err == nil {
		t.Fatal("expected error from expired session")
	}
	if len(actions) != 1 || actions[0] != "expired" {
		t.Errorf("auth-changed actions = %v, want [expired]", actions)
	}
	if f.tokens.RefreshToken() != "" {
		t.Error("tokens survived failed refresh")
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":     exp.Unix(),
		"user_id": 1,
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, "http://unused")
	f.tokens.Save(domain.TokenPair{Access: signed, Refresh: "r"}) //nolint:errcheck

	got, ok := f.coord.AccessTokenExpiry()
	if !ok {
		t.Fatal("expected expiry from a well-formed token")
	}
	if !got.Equal(exp) {
		t.Errorf("expiry = %v, want %v", got, exp)
	}
}

func TestAccessTokenExpiryMalformed(t *testing.T) {
	f := newFixture(t, "http://unused")
	f.tokens.Save(domain.TokenPair{Access: "not-a-jwt", Refresh: "r"}) //nolint:errcheck
	if _, ok := f.coord.AccessTokenExpiry(); ok {
		t.Error("expected ok=false for a malformed token")
	}
}
