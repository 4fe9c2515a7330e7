package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/internal/quota"
	"github.com/nexapdf/nexa/pkg/domain"
)

// usageLoadedMsg carries the result of a backend usage query.
type usageLoadedMsg struct {
	info *domain.UsageInfo
	err  error
}

// usageModel renders the header usage line. Guests read the local quota
// tracker so the line never flashes empty; authenticated users show the
// backend snapshot once it arrives.
type usageModel struct {
	quota  *quota.Tracker
	fetch  quota.UsageFetcher
	authed bool
	server *domain.UsageInfo
}

func newUsageModel(q *quota.Tracker, fetch quota.UsageFetcher, authed bool) usageModel {
	return usageModel{quota: q, fetch: fetch, authed: authed}
}

// load fetches the server-side usage snapshot.
func (m usageModel) load() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		info, err := fetch.Usage(context.Background())
		return usageLoadedMsg{info: info, err: err}
	}
}

func (m usageModel) Update(msg tea.Msg) (usageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usageLoadedMsg:
		if msg.err == nil && msg.info != nil {
			m.server = msg.info
		}
	}
	return m, nil
}

// setAuthed flips the display mode and drops the stale server snapshot.
func (m usageModel) setAuthed(authed bool) usageModel {
	m.authed = authed
	m.server = nil
	return m
}

// line renders the one-line usage summary for the header.
func (m usageModel) line() string {
	if m.authed {
		if m.server != nil && m.server.IsUnlimited {
			if m.server.OperationsToday > 0 {
				return okStyle.Render("unlimited") + metaStyle.Render(fmt.Sprintf(" · %d today", m.server.OperationsToday))
			}
			return okStyle.Render("unlimited")
		}
		return okStyle.Render("unlimited")
	}

	snap := m.quota.Snapshot()
	remaining := snap.Limit - snap.Used
	if remaining < 0 {
		remaining = 0
	}
	text := fmt.Sprintf("%d/%d free operations left today", remaining, snap.Limit)
	switch {
	case remaining == 0:
		return errStyle.Render(text) + metaStyle.Render(" · sign in for unlimited")
	case remaining <= 3:
		return warnStyle.Render(text)
	default:
		return dimStyle.Render(text)
	}
}
