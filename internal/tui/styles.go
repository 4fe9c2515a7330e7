package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the NEXAPDF logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// rgb is a logo palette endpoint.
type rgb struct{ r, g, b float64 }

// logoPalettes maps a stored theme name to its dim/bright wave colors.
// "crimson" is the default; unknown names fall back to it.
var logoPalettes = map[string][2]rgb{
	"crimson": {{64, 14, 18}, {248, 113, 113}},  // #400e12 -> #f87171
	"ember":   {{70, 32, 10}, {251, 146, 60}},   // #46200a -> #fb923c
	"slate":   {{30, 36, 48}, {148, 163, 184}},  // #1e2430 -> #94a3b8
}

// renderShimmerLogo renders "N E X A P D F" as a flowing wave of light in the
// theme's palette. Letters are spaced apart and drawn without a background box.
func renderShimmerLogo(frame int, theme string) string {
	const text = "NEXAPDF"
	n := len(text)

	pal, ok := logoPalettes[theme]
	if !ok {
		pal = logoPalettes["crimson"]
	}
	lo, hi := pal[0], pal[1]

	var out string
	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		// One smooth wave advancing through the text
		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(lo.r + b*(hi.r-lo.r))
		g := clampByte(lo.g + b*(hi.g-lo.g))
		bl := clampByte(lo.b + b*(hi.b-lo.b))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles, neutral palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Accent / action styles
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f87171")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Modal chrome
	modalBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#3a2024")).
				Padding(1, 3)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	toastErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))
)

// categoryColors color the tool grid by group.
var categoryColors = map[string]lipgloss.Color{
	"organize": lipgloss.Color("#60a0e0"),
	"optimize": lipgloss.Color("#4ade80"),
	"edit":     lipgloss.Color("#d4a844"),
	"security": lipgloss.Color("#d05050"),
	"convert":  lipgloss.Color("#c084e0"),
}

// CategoryStyle returns a bold style colored for the given tool category.
func CategoryStyle(category string) lipgloss.Style {
	if c, ok := categoryColors[category]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#606878")).Bold(true)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

var helpItems = []helpItem{
	{"Terms of Service", "nexapdf.com/terms", "https://nexapdf.com/terms"},
	{"Privacy Policy", "nexapdf.com/privacy", "https://nexapdf.com/privacy"},
	{"Support", "nexapdf.com/support", "https://nexapdf.com/support"},
	{"Website", "nexapdf.com", "https://nexapdf.com"},
}

// helpView renders the interactive help overlay with a cursor.
func helpView(cursor int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f87171")).
		Bold(true).
		Render("N E X A P D F")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Every PDF tool, one terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f87171"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	commands := []struct{ cmd, desc string }{
		{"nexa", "Open the toolbox (interactive TUI)"},
		{"nexa login", "Sign in with username and password"},
		{"nexa signup", "Create an account"},
		{"nexa logout", "Clear your session"},
		{"nexa update", "Check for updates"},
		{"nexa --version", "Show version"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  %s\n\n", title, tagline)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range helpItems {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = cursorStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
