package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/pkg/client"
)

func newTestAccount(t *testing.T) accountModel {
	t.Helper()
	deps := newTestDeps(t)
	return newAccountModel(deps.Auth)
}

func TestAccountMenuOpensLogin(t *testing.T) {
	m := newTestAccount(t)
	if m.state != acctMenu {
		t.Fatalf("state = %d, want menu for a guest", m.state)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != acctLogin {
		t.Fatalf("state = %d, want login", m.state)
	}
	if len(m.fields) != 2 || m.fields[1].key != "password" {
		t.Errorf("login fields = %+v", m.fields)
	}
	if !m.fields[1].secret {
		t.Error("password field must be masked")
	}
}

func TestAccountMenuOpensSignup(t *testing.T) {
	m := newTestAccount(t)
	m, _ = m.Update(keyRunes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != acctSignup {
		t.Fatalf("state = %d, want signup", m.state)
	}
	if len(m.fields) != 6 {
		t.Errorf("signup fields = %d, want 6", len(m.fields))
	}
}

func TestAccountMenuOpensReset(t *testing.T) {
	m := newTestAccount(t)
	m, _ = m.Update(keyRunes("j"))
	m, _ = m.Update(keyRunes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != acctReset {
		t.Fatalf("state = %d, want reset", m.state)
	}
}

func TestAccountFormEscBackToMenu(t *testing.T) {
	m := newTestAccount(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != acctMenu {
		t.Errorf("state = %d, want menu", m.state)
	}
}

func TestAccountLoginRequiredValidation(t *testing.T) {
	m := newTestAccount(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // open login
	m.fieldIdx = len(m.fields) - 1

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for an empty form")
	}
	if m.errMsg == "" {
		t.Error("expected a missing-field message")
	}
	if m.busy {
		t.Error("invalid form must not go busy")
	}
}

func TestAccountSignupPasswordMismatch(t *testing.T) {
	m := newTestAccount(t)
	m.state = acctSignup
	m.fields = signupFields()
	for i := range m.fields {
		switch m.fields[i].key {
		case "username":
			m.fields[i].value = "dana"
		case "email":
			m.fields[i].value = "dana@example.com"
		case "password":
			m.fields[i].value = "one"
		case "password2":
			m.fields[i].value = "two"
		}
	}

	m, cmd := m.submit()
	if cmd != nil {
		t.Error("mismatched passwords must not reach the backend")
	}
	if m.errMsg != "passwords do not match" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

func TestAccountEditingFlag(t *testing.T) {
	m := newTestAccount(t)
	if m.editing() {
		t.Error("menu is not an editing state")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing() {
		t.Error("login form is an editing state")
	}
}

func TestAuthErrorMessagePrefersFieldErrors(t *testing.T) {
	err := error(&client.APIError{
		StatusCode: 400,
		Message:    "validation failed",
		Fields: map[string][]string{
			"password": {"too short"},
			"username": {"already taken"},
		},
	})
	if got := authErrorMessage(err); got != "already taken" {
		t.Errorf("authErrorMessage = %q, want the username field message", got)
	}

	err = &client.APIError{StatusCode: 500, Message: "server error"}
	if got := authErrorMessage(err); got != "server error" {
		t.Errorf("authErrorMessage = %q", got)
	}

	plain := errors.New("connection refused")
	if got := authErrorMessage(plain); got != "connection refused" {
		t.Errorf("authErrorMessage = %q", got)
	}
}
