package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/pkg/client"
	"github.com/nexapdf/nexa/pkg/domain"
)

// authDoneMsg carries the result of a login or signup attempt.
type authDoneMsg struct {
	user *domain.User
	err  error
}

// loggedOutMsg signals that the session was torn down.
type loggedOutMsg struct{}

// resetSentMsg signals that a password-reset email was requested.
type resetSentMsg struct {
	err error
}

type accountState int

const (
	acctMenu accountState = iota
	acctLogin
	acctSignup
	acctReset
	acctProfile
)

type accountModel struct {
	auth *auth.Coordinator

	state    accountState
	cursor   int
	fields   []formField
	fieldIdx int
	busy     bool
	errMsg   string
	info     string

	user   *domain.User
	expiry time.Time

	animFrame int
	width     int
	height    int
}

var acctMenuItems = []struct{ label, desc string }{
	{"Sign in", "Use an existing account"},
	{"Create account", "Free, unlimited operations"},
	{"Forgot password", "Email a reset link"},
}

func newAccountModel(a *auth.Coordinator) accountModel {
	m := accountModel{auth: a}
	return m.syncUser()
}

// syncUser pulls the coordinator's current user into the model.
func (m accountModel) syncUser() accountModel {
	m.user = m.auth.User()
	if m.user != nil {
		m.state = acctProfile
		if exp, ok := m.auth.AccessTokenExpiry(); ok {
			m.expiry = exp
		}
	} else {
		m.state = acctMenu
		m.expiry = time.Time{}
	}
	return m
}

func (m accountModel) Init() tea.Cmd { return nil }

func loginFields() []formField {
	return []formField{
		{key: "username", label: "username", placeholder: "your username", required: true},
		{key: "password", label: "password", placeholder: "", required: true, secret: true},
	}
}

func signupFields() []formField {
	return []formField{
		{key: "username", label: "username", placeholder: "pick a username", required: true},
		{key: "email", label: "email", placeholder: "you@example.com", required: true},
		{key: "password", label: "password", placeholder: "", required: true, secret: true},
		{key: "password2", label: "confirm", placeholder: "", required: true, secret: true},
		{key: "first_name", label: "first name", placeholder: "optional"},
		{key: "last_name", label: "last name", placeholder: "optional"},
	}
}

func resetFields() []formField {
	return []formField{
		{key: "email", label: "email", placeholder: "you@example.com", required: true},
	}
}

func (m accountModel) Update(msg tea.Msg) (accountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case shimmerTickMsg:
		m.animFrame++
		return m, nil

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = authErrorMessage(msg.err)
			return m, nil
		}
		m.errMsg = ""
		return m.syncUser(), toastCmd("welcome, "+msg.user.Username, false)

	case loggedOutMsg:
		return m.syncUser(), toastCmd("signed out", false)

	case resetSentMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = authErrorMessage(msg.err)
			return m, nil
		}
		m.state = acctMenu
		m.info = "reset link sent, check your inbox"
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case acctMenu:
			return m.updateMenu(msg)
		case acctLogin, acctSignup, acctReset:
			return m.updateForm(msg)
		case acctProfile:
			return m.updateProfile(msg)
		}
	}
	return m, nil
}

func (m accountModel) updateMenu(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(acctMenuItems)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.errMsg = ""
		m.info = ""
		m.fieldIdx = 0
		switch m.cursor {
		case 0:
			m.state = acctLogin
			m.fields = loginFields()
		case 1:
			m.state = acctSignup
			m.fields = signupFields()
		case 2:
			m.state = acctReset
			m.fields = resetFields()
		}
	}
	return m, nil
}

func (m accountModel) updateForm(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.state = acctMenu
		m.errMsg = ""
		return m, nil
	case "tab", "down":
		if m.fieldIdx < len(m.fields)-1 {
			m.fieldIdx++
		}
		return m, nil
	case "shift+tab", "up":
		if m.fieldIdx > 0 {
			m.fieldIdx--
		}
		return m, nil
	case "enter":
		if m.fieldIdx < len(m.fields)-1 {
			m.fieldIdx++
			return m, nil
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	default:
		m.fields[m.fieldIdx].value = editRune(m.fields[m.fieldIdx].value, msg.String())
		return m, nil
	}
}

func (m accountModel) updateProfile(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	switch msg.String() {
	case "x":
		a := m.auth
		return m, func() tea.Msg {
			a.Logout(context.Background())
			return loggedOutMsg{}
		}
	}
	return m, nil
}

func (m accountModel) submit() (accountModel, tea.Cmd) {
	values := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		if f.required && strings.TrimSpace(f.value) == "" {
			m.errMsg = "missing " + f.label
			return m, nil
		}
		values[f.key] = strings.TrimSpace(f.value)
	}

	a := m.auth
	switch m.state {
	case acctLogin:
		m.busy = true
		m.errMsg = ""
		return m, func() tea.Msg {
			user, err := a.Login(context.Background(), values["username"], values["password"])
			return authDoneMsg{user: user, err: err}
		}
	case acctSignup:
		if values["password"] != values["password2"] {
			m.errMsg = "passwords do not match"
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		req := client.SignupRequest{
			Username:  values["username"],
			Email:     values["email"],
			Password:  values["password"],
			Password2: values["password2"],
			FirstName: values["first_name"],
			LastName:  values["last_name"],
		}
		return m, func() tea.Msg {
			user, err := a.Signup(context.Background(), req)
			return authDoneMsg{user: user, err: err}
		}
	case acctReset:
		m.busy = true
		m.errMsg = ""
		return m, func() tea.Msg {
			return resetSentMsg{err: a.Client().RequestPasswordReset(context.Background(), values["email"])}
		}
	}
	return m, nil
}

// authErrorMessage flattens a backend error into one display line, preferring
// field-level validation messages.
func authErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		for _, key := range []string{"username", "email", "password", "password2", "detail"} {
			if msg := apiErr.FieldMessage(key); msg != "" {
				return msg
			}
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return err.Error()
}

func (m accountModel) View() string {
	switch m.state {
	case acctLogin:
		return m.viewForm("Sign in")
	case acctSignup:
		return m.viewForm("Create account")
	case acctReset:
		return m.viewForm("Reset password")
	case acctProfile:
		return m.viewProfile()
	default:
		return m.viewMenu()
	}
}

func (m accountModel) viewMenu() string {
	var sb strings.Builder
	sb.WriteString("\n  " + dimStyle.Render("You're browsing as a guest. Accounts are free and unlimited.") + "\n\n")
	for i, item := range acctMenuItems {
		label := normalStyle.Render(fmt.Sprintf("%-18s", item.label))
		prefix := "    "
		if i == m.cursor {
			label = selectedStyle.Render(fmt.Sprintf("%-18s", item.label))
			prefix = "  " + accentStyle.Render("> ")
		}
		sb.WriteString(prefix + label + dimStyle.Render(item.desc) + "\n")
	}
	if m.info != "" {
		sb.WriteString("\n  " + okStyle.Render(m.info) + "\n")
	}
	if m.errMsg != "" {
		sb.WriteString("\n  " + errStyle.Render(m.errMsg) + "\n")
	}
	return sb.String()
}

func (m accountModel) viewForm(title string) string {
	var sb strings.Builder
	sb.WriteString("\n  " + selectedStyle.Render(title) + "\n\n")
	for i, f := range m.fields {
		sb.WriteString(renderField(f, !m.busy && i == m.fieldIdx, m.animFrame) + "\n")
	}
	sb.WriteString("\n")
	if m.busy {
		dots := strings.Repeat(".", (m.animFrame/6)%4)
		sb.WriteString("  " + accentStyle.Render("working"+dots) + "\n")
	} else if m.errMsg != "" {
		sb.WriteString("  " + errStyle.Render(m.errMsg) + "\n")
	}
	return sb.String()
}

func (m accountModel) viewProfile() string {
	var sb strings.Builder
	u := m.user
	sb.WriteString("\n  " + selectedStyle.Render(u.Username) + "\n\n")
	if name := u.FullName(); name != "" {
		sb.WriteString("  " + dimStyle.Render("name   ") + normalStyle.Render(name) + "\n")
	}
	sb.WriteString("  " + dimStyle.Render("email  ") + normalStyle.Render(u.Email) + "\n")
	sb.WriteString("  " + dimStyle.Render("plan   ") + okStyle.Render("unlimited operations") + "\n")
	if !m.expiry.IsZero() {
		state := okStyle.Render("valid")
		if time.Now().After(m.expiry) {
			state = warnStyle.Render("renewing on next request")
		}
		sb.WriteString("  " + dimStyle.Render("token  ") + state +
			dimStyle.Render("  ·  expires "+m.expiry.Format("15:04 Jan 2")) + "\n")
	}
	return sb.String()
}

func (m accountModel) helpKeys() string {
	switch m.state {
	case acctLogin, acctSignup, acctReset:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("esc", "back")
	case acctProfile:
		return helpEntry("x", "sign out") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	default:
		return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "select") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}
}

func (m accountModel) editing() bool {
	switch m.state {
	case acctLogin, acctSignup, acctReset:
		return true
	}
	return false
}
