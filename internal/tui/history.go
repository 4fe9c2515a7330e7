package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/pkg/domain"
)

type historyLoadedMsg struct {
	entries []domain.HistoryEntry
	err     error
}

// historyModel lists the authenticated account's processing history.
// Guests see a sign-in prompt; their operations are never recorded.
type historyModel struct {
	auth *auth.Coordinator

	entries []domain.HistoryEntry
	loading bool
	errMsg  string
	offset  int
	width   int
	height  int
}

func newHistoryModel(a *auth.Coordinator) historyModel {
	return historyModel{auth: a}
}

func (m historyModel) Init() tea.Cmd {
	if !m.auth.Authenticated() {
		return nil
	}
	return m.load()
}

func (m historyModel) load() tea.Cmd {
	c := m.auth.Client()
	return func() tea.Msg {
		entries, err := c.History(context.Background())
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m historyModel) Update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.entries = msg.entries
			m.errMsg = ""
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.offset < len(m.entries)-1 {
				m.offset++
			}
		case "k", "up":
			if m.offset > 0 {
				m.offset--
			}
		case "r":
			if m.auth.Authenticated() {
				m.loading = true
				return m, m.load()
			}
		}
	}
	return m, nil
}

func (m historyModel) View() string {
	if !m.auth.Authenticated() {
		return "\n  " + dimStyle.Render("Sign in to keep a processing history.") + "\n"
	}
	if m.loading && len(m.entries) == 0 {
		return "\n  " + dimStyle.Render("loading history...") + "\n"
	}
	if m.errMsg != "" {
		return "\n  " + errStyle.Render("error: "+m.errMsg) + "\n"
	}
	if len(m.entries) == 0 {
		return "\n  " + dimStyle.Render("nothing processed yet") + "\n"
	}

	maxRows := m.height - 3
	if maxRows < 5 {
		maxRows = 10
	}

	var sb strings.Builder
	sb.WriteString("\n")
	end := m.offset + maxRows
	if end > len(m.entries) {
		end = len(m.entries)
	}
	for _, e := range m.entries[m.offset:end] {
		mark := okStyle.Render("✓")
		if !e.Success {
			mark = errStyle.Render("✗")
		}
		op := domain.Operation(e.OperationType).Title()
		line := fmt.Sprintf("  %s %s  %s  %s  %s",
			mark,
			metaStyle.Render(fmt.Sprintf("%8s", formatTime(e.CreatedAt))),
			selectedStyle.Render(fmt.Sprintf("%-18s", op)),
			normalStyle.Render(truncStr(e.FileName, 32)),
			dimStyle.Render(humanSize(e.FileSize)),
		)
		if !e.Success && e.ErrorMessage != "" {
			line += "  " + errStyle.Render(truncStr(e.ErrorMessage, 30))
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m historyModel) helpKeys() string {
	return helpEntry("j/k", "scroll") + "  " + helpEntry("r", "reload") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
}
