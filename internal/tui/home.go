package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexapdf/nexa/pkg/domain"
)

// openToolMsg asks the app to jump to the tools tab with op's form open.
type openToolMsg struct {
	op domain.Operation
}

// featuredTools is the home grid, ordered the way the landing page orders
// them: the everyday tools first, conversions behind the tools tab.
var featuredTools = []domain.Operation{
	domain.OpMerge,
	domain.OpSplit,
	domain.OpCompress,
	domain.OpExtractText,
	domain.OpWatermark,
	domain.OpRotate,
	domain.OpSecure,
	domain.OpUnlock,
	domain.OpOrganize,
	domain.OpPDFToWord,
	domain.OpWordToPDF,
	domain.OpPDFToImages,
}

const homeColumns = 3

type homeModel struct {
	cursor int
	width  int
	height int
}

func newHomeModel() homeModel {
	return homeModel{}
}

func (m homeModel) Init() tea.Cmd { return nil }

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "right":
			if m.cursor < len(featuredTools)-1 {
				m.cursor++
			}
		case "left":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j", "down":
			if m.cursor+homeColumns < len(featuredTools) {
				m.cursor += homeColumns
			}
		case "k", "up":
			if m.cursor-homeColumns >= 0 {
				m.cursor -= homeColumns
			}
		case "enter":
			op := featuredTools[m.cursor]
			return m, func() tea.Msg { return openToolMsg{op: op} }
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	var sb strings.Builder

	tagline := dimStyle.Render("Every PDF tool, one terminal.")
	sb.WriteString("\n" + centerLine(tagline, m.width) + "\n\n")

	colWidth := (m.width - 4) / homeColumns
	if colWidth < 22 {
		colWidth = 22
	}

	for row := 0; row*homeColumns < len(featuredTools); row++ {
		var line strings.Builder
		line.WriteString("  ")
		for col := 0; col < homeColumns; col++ {
			i := row*homeColumns + col
			if i >= len(featuredTools) {
				break
			}
			op := featuredTools[i]
			spec, _ := specFor(op)
			title := op.Title()

			var cell string
			if i == m.cursor {
				cell = accentStyle.Render("> ") + selectedStyle.Render(title)
			} else {
				cell = "  " + CategoryStyle(spec.category).Render(title)
			}
			pad := colWidth - lipgloss.Width(cell)
			if pad < 1 {
				pad = 1
			}
			line.WriteString(cell + strings.Repeat(" ", pad))
		}
		sb.WriteString(line.String() + "\n")
	}

	// Selected tool's description under the grid
	spec, ok := specFor(featuredTools[m.cursor])
	if ok {
		sb.WriteString("\n  " + metaStyle.Render(fmt.Sprintf("%s · %s", spec.op.Title(), spec.desc)) + "\n")
	}

	return sb.String()
}

func (m homeModel) helpKeys() string {
	return helpEntry("arrows", "pick") + "  " + helpEntry("enter", "open") + "  " + helpEntry("1-4", "tabs") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
}
