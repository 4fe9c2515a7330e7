package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/internal/browser"
	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/quota"
	"github.com/nexapdf/nexa/internal/store"
	"github.com/nexapdf/nexa/pkg/domain"
)

type view int

const (
	viewHome view = iota
	viewTools
	viewAccount
	viewHistory
)

// Bus events crossing into the Bubbletea loop.
type busAuthMsg struct{ change notify.AuthChange }
type busUsageResetMsg struct{ reset notify.UsageReset }
type busOperationMsg struct{ ev domain.OperationEvent }

// quotaReconciledMsg reports a finished guest-counter reconcile so the
// header re-renders with the authoritative count.
type quotaReconciledMsg struct{}

// toastMsg shows a transient status line; toastClearMsg removes it.
type toastMsg struct {
	text  string
	isErr bool
}
type toastClearMsg struct{}

func toastCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text, isErr: isErr} }
}

// Deps wires the app to the session it renders. Everything is injected; the
// TUI holds no globals.
type Deps struct {
	Auth    *auth.Coordinator
	Quota   *quota.Tracker
	Session *store.SessionStore
	Prefs   *store.PrefsStore
	Bus     *notify.Bus
	Version string
}

// App is the root Bubbletea model.
type App struct {
	deps Deps

	view    view
	home    homeModel
	tools   toolsModel
	account accountModel
	history historyModel
	usage   usageModel

	events chan tea.Msg

	welcomeOpen bool
	limitOpen   bool
	helpOpen    bool
	helpCursor  int

	toast    string
	toastErr bool

	updateHint string
	theme      string

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI application and bridges the notifier onto the
// Bubbletea message loop.
func NewApp(deps Deps) App {
	a := App{
		deps:    deps,
		home:    newHomeModel(),
		tools:   newToolsModel(deps.Auth, deps.Quota, deps.Bus),
		account: newAccountModel(deps.Auth),
		history: newHistoryModel(deps.Auth),
		usage:   newUsageModel(deps.Quota, deps.Auth.Client(), deps.Auth.Authenticated()),
		events:  make(chan tea.Msg, 64),
		theme:   deps.Prefs.Theme(),
	}

	// First guest run: offer the choice between guest mode and an account.
	a.welcomeOpen = !deps.Auth.Authenticated() && !deps.Session.HasSeenWelcome()

	push := func(msg tea.Msg) {
		select {
		case a.events <- msg:
		default: // a stalled UI never blocks publishers
		}
	}
	deps.Bus.SubscribeAuthChanged(func(c notify.AuthChange) { push(busAuthMsg{change: c}) })       //nolint:errcheck
	deps.Bus.SubscribeUsageReset(func(r notify.UsageReset) { push(busUsageResetMsg{reset: r}) })   //nolint:errcheck
	deps.Bus.SubscribeOperation(func(ev domain.OperationEvent) { push(busOperationMsg{ev: ev}) }) //nolint:errcheck

	return a
}

func (a App) waitForEvent() tea.Cmd {
	ch := a.events
	return func() tea.Msg { return <-ch }
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), a.waitForEvent(), a.history.Init(), checkVersion(a.deps.Version)}
	if a.deps.Auth.Authenticated() {
		cmds = append(cmds, a.usage.load())
	} else if a.deps.Session.ConsumeRefreshUsage() {
		// A prior run (or another instance) flagged the guest counter stale.
		cmds = append(cmds, a.reconcileQuota())
	}
	return tea.Batch(cmds...)
}

// reconcileQuota re-fetches the backend's guest usage count off the UI
// goroutine.
func (a App) reconcileQuota() tea.Cmd {
	q := a.deps.Quota
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		q.Reconcile(ctx)
		return quotaReconciledMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + toast(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.home, _ = a.home.Update(bodyMsg)
		a.tools, _ = a.tools.Update(bodyMsg)
		a.account, _ = a.account.Update(bodyMsg)
		a.history, _ = a.history.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.tools, _ = a.tools.Update(msg)
		a.account, _ = a.account.Update(msg)
		return a, shimmerTickCmd()

	case busAuthMsg:
		authed := msg.change.User != nil
		a.usage = a.usage.setAuthed(authed)
		a.account = a.account.syncUser()
		cmds := []tea.Cmd{a.waitForEvent()}
		if authed {
			a.welcomeOpen = false
			a.limitOpen = false
			cmds = append(cmds, a.usage.load(), a.history.load())
		} else {
			a.history.entries = nil
			if a.view == viewHistory {
				a.view = viewHome
			}
		}
		if msg.change.Action == "expired" {
			cmds = append(cmds, toastCmd("session expired, sign in again", true))
		}
		return a, tea.Batch(cmds...)

	case busUsageResetMsg:
		a.usage.server = nil
		return a, a.waitForEvent()

	case busOperationMsg:
		cmds := []tea.Cmd{a.waitForEvent()}
		if a.deps.Auth.Authenticated() {
			cmds = append(cmds, a.usage.load())
			if a.view == viewHistory {
				cmds = append(cmds, a.history.load())
			}
		} else if a.deps.Session.ConsumeRefreshUsage() {
			cmds = append(cmds, a.reconcileQuota())
		}
		return a, tea.Batch(cmds...)

	case quotaReconciledMsg:
		return a, nil

	case usageLoadedMsg:
		a.usage, _ = a.usage.Update(msg)
		return a, nil

	case versionCheckMsg:
		if msg.hasUpdate {
			a.updateHint = msg.latestVersion
		}
		return a, nil

	case toastMsg:
		a.toast = msg.text
		a.toastErr = msg.isErr
		return a, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return toastClearMsg{} })

	case toastClearMsg:
		a.toast = ""
		return a, nil

	case openToolMsg:
		a.view = viewTools
		a.tools = a.tools.open(msg.op)
		return a, nil

	case showLimitMsg:
		a.limitOpen = true
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	return a.route(msg)
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Welcome modal captures all keys when open
	if a.welcomeOpen {
		switch msg.String() {
		case "enter", "g":
			a.welcomeOpen = false
			a.deps.Session.SetGuestMode(true)    //nolint:errcheck
			a.deps.Session.SetWelcomeSeen(true)  //nolint:errcheck
			return a, nil
		case "s":
			a.welcomeOpen = false
			a.deps.Session.SetWelcomeSeen(true) //nolint:errcheck
			a.view = viewAccount
			return a, nil
		case "q", "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	// Limit modal captures all keys when open
	if a.limitOpen {
		switch msg.String() {
		case "s":
			a.limitOpen = false
			a.view = viewAccount
			return a, nil
		case "esc", "enter":
			a.limitOpen = false
			return a, nil
		case "q", "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q", "ctrl+c":
			return a, tea.Quit
		case "j", "down":
			if a.helpCursor < len(helpItems)-1 {
				a.helpCursor++
			}
		case "k", "up":
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case "enter":
			item := helpItems[a.helpCursor]
			if item.url != "" {
				browser.Open(item.url) //nolint:errcheck // best-effort browser open
			}
		}
		return a, nil
	}

	// Global keys (only when not editing)
	if !a.isEditing() {
		switch msg.String() {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q", "ctrl+c":
			return a, tea.Quit
		case "t":
			a.theme = nextTheme(a.theme)
			a.deps.Prefs.SetTheme(a.theme) //nolint:errcheck
			return a, nil
		case "1":
			a.view = viewHome
			return a, nil
		case "2":
			a.view = viewTools
			return a, nil
		case "3":
			a.view = viewAccount
			return a, nil
		case "4":
			if a.view != viewHistory {
				a.view = viewHistory
				return a, a.history.Init()
			}
			return a, nil
		}
	}

	return a.route(msg)
}

// nextTheme cycles the stored logo palette.
func nextTheme(current string) string {
	order := []string{"crimson", "ember", "slate"}
	for i, t := range order {
		if t == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[1]
}

func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewTools:
		a.tools, cmd = a.tools.Update(msg)
	case viewAccount:
		a.account, cmd = a.account.Update(msg)
	case viewHistory:
		a.history, cmd = a.history.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewTools:
		return a.tools.editing()
	case viewAccount:
		return a.account.editing()
	}
	return false
}

func (a App) View() string {
	header := centerLine(renderShimmerLogo(a.frame, a.theme), a.width)

	statusLine := a.usage.line()
	if a.updateHint != "" {
		statusLine += metaStyle.Render("  ·  ") + goldStyle.Render(a.updateHint+" available · nexa update")
	}
	header += "\n" + centerLine(statusLine, a.width)

	// Tab bar: 4 equal-width columns spread across the terminal
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Home", viewHome},
		{"2", "Tools", viewTools},
		{"3", "Account", viewAccount},
		{"4", "History", viewHistory},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	// Body and contextual help
	var body, help string
	switch a.view {
	case viewHome:
		body = a.home.View()
		help = " " + a.home.helpKeys()
	case viewTools:
		body = a.tools.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.tools.helpKeys()
	case viewAccount:
		body = a.account.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.account.helpKeys()
	case viewHistory:
		body = a.history.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.history.helpKeys()
	}

	if a.welcomeOpen {
		body = a.modal(a.welcomeBody())
		help = " " + helpEntry("enter", "continue as guest") + "  " + helpEntry("s", "sign in") + "  " + helpEntry("q", "quit")
	}
	if a.limitOpen {
		body = a.modal(a.limitBody())
		help = " " + helpEntry("s", "sign in") + "  " + helpEntry("esc", "close")
	}
	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	// Toast line sits between body and help
	toastLine := ""
	if a.toast != "" {
		if a.toastErr {
			toastLine = " " + toastErrStyle.Render(a.toast)
		} else {
			toastLine = " " + toastStyle.Render(a.toast)
		}
	}

	// Chrome budget: header(2) + tabs(1) + toast(1) + help(1) = 5 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-5), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, toastLine, help)
}

func (a App) welcomeBody() string {
	var sb strings.Builder
	sb.WriteString(selectedStyle.Render("Welcome to NexaPDF") + "\n\n")
	sb.WriteString(normalStyle.Render("Process PDFs right from your terminal.") + "\n\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("Guests get %d free operations per day.", domain.GuestDailyLimit)) + "\n")
	sb.WriteString(dimStyle.Render("Accounts are free and unlimited."))
	return sb.String()
}

func (a App) limitBody() string {
	snap := a.deps.Quota.Snapshot()
	var sb strings.Builder
	sb.WriteString(warnStyle.Render("Daily limit reached") + "\n\n")
	sb.WriteString(normalStyle.Render(fmt.Sprintf("You've used all %d free operations today.", snap.Limit)) + "\n")
	sb.WriteString(dimStyle.Render("Sign in for unlimited processing, or come back tomorrow."))
	return sb.String()
}

// modal renders content in a centered bordered box.
func (a App) modal(content string) string {
	box := modalBorderStyle.Render(content)
	boxHeight := lipgloss.Height(box)
	topPad := (a.height - 5 - boxHeight) / 2
	if topPad < 0 {
		topPad = 0
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("\n", topPad))
	for _, line := range strings.Split(box, "\n") {
		sb.WriteString(centerLine(line, a.width) + "\n")
	}
	return sb.String()
}
