package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/quota"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/pkg/domain"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	t.Setenv(store.EnvAccessToken, "")
	dir := t.TempDir()
	tokens := store.NewTokenStore(dir)
	session := store.NewSessionStore(dir)
	prefs := store.NewPrefsStore(dir)
	bus := notify.New()
	coord := auth.NewCoordinator("http://unused.invalid", tokens, session, bus)
	tracker := quota.NewTracker(session, coord.Client(), quota.WithReconcileDelays(nil))
	return Deps{Auth: coord, Quota: tracker, Session: session, Prefs: prefs, Bus: bus, Version: "test"}
}

func newTestApp(t *testing.T) App {
	t.Helper()
	deps := newTestDeps(t)
	deps.Session.SetWelcomeSeen(true) //nolint:errcheck
	a := NewApp(deps)
	a.width = 80
	a.height = 30
	return a
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key      string
		wantView view
	}{
		{"1", viewHome},
		{"2", viewTools},
		{"3", viewAccount},
		{"4", viewHistory},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			app := newTestApp(t)
			model, _ := app.Update(keyRunes(tc.key))
			a := model.(App)
			if a.view != tc.wantView {
				t.Errorf("after key %q: expected view=%d, got %d", tc.key, tc.wantView, a.view)
			}
		})
	}
}

func TestAppWelcomeShownOnFirstGuestRun(t *testing.T) {
	deps := newTestDeps(t)
	a := NewApp(deps)
	if !a.welcomeOpen {
		t.Fatal("expected welcome modal on first unauthenticated run")
	}

	// Tab keys are captured while the modal is open
	model, _ := a.Update(keyRunes("2"))
	a = model.(App)
	if a.view != viewHome {
		t.Error("welcome modal should capture tab keys")
	}
}

func TestAppWelcomeGuestChoice(t *testing.T) {
	deps := newTestDeps(t)
	a := NewApp(deps)
	a.width, a.height = 80, 30

	model, _ := a.Update(keyRunes("g"))
	a = model.(App)
	if a.welcomeOpen {
		t.Error("expected welcome closed after choosing guest mode")
	}
	if !deps.Session.GuestMode() {
		t.Error("expected guest mode on")
	}
	if !deps.Session.HasSeenWelcome() {
		t.Error("expected welcome marked seen")
	}
}

func TestAppWelcomeSignInChoice(t *testing.T) {
	deps := newTestDeps(t)
	a := NewApp(deps)

	model, _ := a.Update(keyRunes("s"))
	a = model.(App)
	if a.welcomeOpen {
		t.Error("expected welcome closed")
	}
	if a.view != viewAccount {
		t.Errorf("view = %d, want account", a.view)
	}
	if deps.Session.GuestMode() {
		t.Error("choosing sign-in must not enable guest mode")
	}
}

func TestAppLimitModal(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(showLimitMsg{})
	a = model.(App)
	if !a.limitOpen {
		t.Fatal("expected limit modal open after showLimitMsg")
	}

	// "s" routes to the account tab
	model, _ = a.Update(keyRunes("s"))
	a = model.(App)
	if a.limitOpen {
		t.Error("expected limit modal closed")
	}
	if a.view != viewAccount {
		t.Errorf("view = %d, want account", a.view)
	}
}

func TestAppLimitModalEscCloses(t *testing.T) {
	a := newTestApp(t)
	model, _ := a.Update(showLimitMsg{})
	a = model.(App)

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = model.(App)
	if a.limitOpen {
		t.Error("expected esc to close the limit modal")
	}
	if a.view == viewAccount {
		t.Error("esc must not route anywhere")
	}
}

func TestAppGlobalQuitOnQ(t *testing.T) {
	a := newTestApp(t)
	_, cmd := a.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
}

func TestAppHelpOverlayCapture(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(keyRunes("h"))
	a = model.(App)
	if !a.helpOpen {
		t.Fatal("expected help overlay open")
	}

	// Tab keys are swallowed while help is open
	model, _ = a.Update(keyRunes("2"))
	a = model.(App)
	if a.view != viewHome {
		t.Error("help overlay should capture tab keys")
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = model.(App)
	if a.helpOpen {
		t.Error("expected esc to close help")
	}
}

func TestAppThemeCycling(t *testing.T) {
	deps := newTestDeps(t)
	deps.Session.SetWelcomeSeen(true) //nolint:errcheck
	a := NewApp(deps)

	start := a.theme
	model, _ := a.Update(keyRunes("t"))
	a = model.(App)
	if a.theme == start {
		t.Error("expected theme to change on 't'")
	}
	if got := deps.Prefs.Theme(); got != a.theme {
		t.Errorf("persisted theme = %q, want %q", got, a.theme)
	}
}

func TestNextThemeCycles(t *testing.T) {
	seen := map[string]bool{}
	theme := "crimson"
	for i := 0; i < 3; i++ {
		seen[theme] = true
		theme = nextTheme(theme)
	}
	if theme != "crimson" {
		t.Errorf("cycle did not return to start: %q", theme)
	}
	if len(seen) != 3 {
		t.Errorf("saw %d themes, want 3", len(seen))
	}
}

func TestAppOpenToolJumpsToForm(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(openToolMsg{op: domain.OpCompress})
	a = model.(App)
	if a.view != viewTools {
		t.Fatalf("view = %d, want tools", a.view)
	}
	if !a.tools.editing() {
		t.Error("expected tool form open")
	}

	// Editing swallows global keys: typing "q" must not quit.
	model, cmd := a.Update(keyRunes("q"))
	a = model.(App)
	if cmd != nil {
		t.Error("expected no quit command while editing")
	}
	if a.tools.fields[0].value != "q" {
		t.Errorf("field value = %q, want typed rune", a.tools.fields[0].value)
	}
}

func TestAppToastSetAndClear(t *testing.T) {
	a := newTestApp(t)

	model, cmd := a.Update(toastMsg{text: "saved", isErr: false})
	a = model.(App)
	if a.toast != "saved" {
		t.Errorf("toast = %q", a.toast)
	}
	if cmd == nil {
		t.Error("expected a scheduled toast clear")
	}

	model, _ = a.Update(toastClearMsg{})
	a = model.(App)
	if a.toast != "" {
		t.Error("expected toast cleared")
	}
}

func TestAppLoggedOutLeavesHistoryView(t *testing.T) {
	a := newTestApp(t)
	a.view = viewHistory
	a.history.entries = []domain.HistoryEntry{{FileName: "a.pdf"}}

	model, _ := a.Update(busAuthMsg{change: notify.AuthChange{User: nil, Action: "logout"}})
	a = model.(App)
	if a.view != viewHome {
		t.Errorf("view = %d, want home after logout", a.view)
	}
	if a.history.entries != nil {
		t.Error("expected history cleared after logout")
	}
}

func TestAppViewRendersWithoutSize(t *testing.T) {
	deps := newTestDeps(t)
	deps.Session.SetWelcomeSeen(true) //nolint:errcheck
	a := NewApp(deps)
	// Zero width/height must not panic before the first WindowSizeMsg.
	_ = a.View()
}

func TestAppInitConsumesRefreshUsageFlag(t *testing.T) {
	a := newTestApp(t)
	a.deps.Session.SetGuestMode(true)    //nolint:errcheck
	a.deps.Session.SetRefreshUsage(true) //nolint:errcheck

	_ = a.Init()

	if a.deps.Session.ConsumeRefreshUsage() {
		t.Error("expected Init to consume the pending refresh-usage flag")
	}
}

func TestAppGuestOperationEventSchedulesReconcile(t *testing.T) {
	a := newTestApp(t)
	a.deps.Session.SetGuestMode(true)    //nolint:errcheck
	a.deps.Session.SetRefreshUsage(true) //nolint:errcheck

	model, cmd := a.Update(busOperationMsg{ev: domain.OperationEvent{ID: "ev-9", Type: domain.OpMerge, Success: true}})
	a = model.(App)
	if cmd == nil {
		t.Fatal("expected commands from the operation event")
	}
	if a.deps.Session.ConsumeRefreshUsage() {
		t.Error("expected the refresh-usage flag consumed on the operation event")
	}
}
