package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexapdf/nexa/internal/auth"
	"github.com/nexapdf/nexa/internal/notify"
	"github.com/nexapdf/nexa/internal/quota"
	"github.com/nexapdf/nexa/pkg/client"
	"github.com/nexapdf/nexa/pkg/domain"
)

// toolSpec describes one tool: the operation it runs and the form it needs.
type toolSpec struct {
	op       domain.Operation
	category string
	desc     string
	fields   []formField
}

// fileField is the form key holding the input path(s).
const fileField = "file"

func pathField(label string) formField {
	return formField{key: fileField, label: label, placeholder: "path/to/document.pdf", required: true}
}

var toolSpecs = []toolSpec{
	{op: domain.OpMerge, category: "organize", desc: "Combine PDFs into one document", fields: []formField{
		{key: fileField, label: "files", placeholder: "a.pdf, b.pdf, ...", required: true},
	}},
	{op: domain.OpSplit, category: "organize", desc: "Split a PDF into parts", fields: []formField{
		pathField("file"),
		{key: "split_type", label: "mode", placeholder: "pages | range | every", value: "pages"},
		{key: "split_value", label: "value", placeholder: "e.g. 1-3,5 or 2"},
	}},
	{op: domain.OpOrganize, category: "organize", desc: "Reorder, delete, or duplicate pages", fields: []formField{
		pathField("file"),
		{key: "operation", label: "edit", placeholder: "reorder | delete | duplicate", value: "reorder", required: true},
		{key: "page_order", label: "pages", placeholder: "e.g. 3,1,2", required: true},
	}},
	{op: domain.OpRotate, category: "organize", desc: "Rotate pages", fields: []formField{
		pathField("file"),
		{key: "pages", label: "pages", placeholder: "all | 1,3,5 | 2-6", value: "all"},
		{key: "angle", label: "angle", placeholder: "90, 180, or 270", value: "90"},
	}},
	{op: domain.OpCompress, category: "optimize", desc: "Shrink a PDF's file size", fields: []formField{
		pathField("file"),
	}},
	{op: domain.OpExtractText, category: "edit", desc: "Pull the text out of a PDF", fields: []formField{
		pathField("file"),
	}},
	{op: domain.OpWatermark, category: "edit", desc: "Stamp text onto every page", fields: []formField{
		pathField("file"),
		{key: "watermark", label: "text", placeholder: "CONFIDENTIAL", required: true},
	}},
	{op: domain.OpPDFToImages, category: "edit", desc: "Render pages to images", fields: []formField{
		pathField("file"),
		{key: "format", label: "format", placeholder: "jpg | png", value: "jpg"},
		{key: "dpi", label: "dpi", placeholder: "150", value: "150"},
	}},
	{op: domain.OpImagesToPDF, category: "edit", desc: "Build a PDF from images", fields: []formField{
		{key: fileField, label: "images", placeholder: "scan1.jpg, scan2.jpg, ...", required: true},
	}},
	{op: domain.OpSecure, category: "security", desc: "Password-protect a PDF", fields: []formField{
		pathField("file"),
		{key: "password", label: "password", placeholder: "", required: true, secret: true},
	}},
	{op: domain.OpUnlock, category: "security", desc: "Remove password protection", fields: []formField{
		pathField("file"),
		{key: "password", label: "password", placeholder: "", required: true, secret: true},
	}},
	{op: domain.OpWordToPDF, category: "convert", desc: "Word document to PDF", fields: []formField{pathField("file")}},
	{op: domain.OpPDFToWord, category: "convert", desc: "PDF to Word document", fields: []formField{pathField("file")}},
	{op: domain.OpExcelToPDF, category: "convert", desc: "Excel workbook to PDF", fields: []formField{pathField("file")}},
	{op: domain.OpPDFToExcel, category: "convert", desc: "PDF to Excel workbook", fields: []formField{pathField("file")}},
	{op: domain.OpPowerPointToPDF, category: "convert", desc: "Presentation to PDF", fields: []formField{pathField("file")}},
	{op: domain.OpPDFToPowerPoint, category: "convert", desc: "PDF to presentation", fields: []formField{pathField("file")}},
}

func specFor(op domain.Operation) (toolSpec, bool) {
	for _, s := range toolSpecs {
		if s.op == op {
			return s, true
		}
	}
	return toolSpec{}, false
}

// showLimitMsg tells the app to raise the guest-limit modal.
type showLimitMsg struct{}

// toolDoneMsg carries the outcome of a processing call.
type toolDoneMsg struct {
	op        domain.Operation
	savedPath string
	size      int64
	text      *client.ExtractedText
	err       error
}

type toolsState int

const (
	toolsPicking toolsState = iota
	toolsEditing
	toolsRunning
	toolsDone
)

type toolsModel struct {
	auth  *auth.Coordinator
	quota *quota.Tracker
	bus   *notify.Bus

	state  toolsState
	cursor int

	tool     toolSpec
	fields   []formField
	fieldIdx int

	savedPath string
	savedSize int64
	text      *client.ExtractedText
	errMsg    string

	animFrame int
	width     int
	height    int
}

func newToolsModel(a *auth.Coordinator, q *quota.Tracker, bus *notify.Bus) toolsModel {
	return toolsModel{auth: a, quota: q, bus: bus}
}

func (m toolsModel) Init() tea.Cmd { return nil }

// open jumps straight into a tool's form (used by the home grid).
func (m toolsModel) open(op domain.Operation) toolsModel {
	spec, ok := specFor(op)
	if !ok {
		return m
	}
	for i, s := range toolSpecs {
		if s.op == op {
			m.cursor = i
		}
	}
	m.tool = spec
	m.fields = append([]formField(nil), spec.fields...)
	m.fieldIdx = 0
	m.errMsg = ""
	m.state = toolsEditing
	return m
}

func (m toolsModel) Update(msg tea.Msg) (toolsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case shimmerTickMsg:
		m.animFrame++
		return m, nil

	case toolDoneMsg:
		m.state = toolsDone
		m.errMsg = ""
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.savedPath = msg.savedPath
		m.savedSize = msg.size
		m.text = msg.text
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case toolsPicking:
			return m.updatePicking(msg)
		case toolsEditing:
			return m.updateEditing(msg)
		case toolsRunning:
			return m, nil
		case toolsDone:
			return m.updateDone(msg)
		}
	}
	return m, nil
}

func (m toolsModel) updatePicking(msg tea.KeyMsg) (toolsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(toolSpecs)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		return m.open(toolSpecs[m.cursor].op), nil
	}
	return m, nil
}

func (m toolsModel) updateEditing(msg tea.KeyMsg) (toolsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = toolsPicking
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

func (m toolsModel) updateDone(msg tea.KeyMsg) (toolsModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = toolsPicking
		m.savedPath = ""
		m.text = nil
		m.errMsg = ""
	case "c":
		if m.text != nil {
			clipboard.WriteAll(m.text.Text) //nolint:errcheck // clipboard is best-effort
			return m, toastCmd("text copied", false)
		}
		if m.savedPath != "" {
			clipboard.WriteAll(m.savedPath) //nolint:errcheck
			return m, toastCmd("path copied", false)
		}
	case "r":
		if m.errMsg != "" {
			m.state = toolsEditing
			m.errMsg = ""
		}
	}
	return m, nil
}

func (m toolsModel) submit() (toolsModel, tea.Cmd) {
	for _, f := range m.fields {
		if f.required && strings.TrimSpace(f.value) == "" {
			m.errMsg = "missing " + f.label
			return m, nil
		}
	}
	// Guests are blocked locally once the daily allowance is spent; the call
	// never reaches the backend.
	if !m.quota.CanPerform() {
		return m, func() tea.Msg { return showLimitMsg{} }
	}

	m.errMsg = ""
	m.state = toolsRunning

	values := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		values[f.key] = strings.TrimSpace(f.value)
	}
	return m, runTool(m.auth.Client(), m.bus, m.tool.op, values)
}

// runTool executes the operation off the UI goroutine, saves any binary
// result next to the working directory, and announces the outcome on the bus
// so the quota tracker and other instances see it.
func runTool(c *client.Client, bus *notify.Bus, op domain.Operation, values map[string]string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		files, err := loadFormFiles(values[fileField])
		if err != nil {
			return toolDoneMsg{op: op, err: err}
		}

		var (
			dl   *client.Download
			text *client.ExtractedText
		)
		switch op {
		case domain.OpMerge:
			dl, err = c.Merge(ctx, files, nil)
		case domain.OpSplit:
			dl, err = c.Split(ctx, files[0], orDefault(values["split_type"], "pages"), values["split_value"], nil)
		case domain.OpCompress:
			dl, err = c.Compress(ctx, files[0], nil)
		case domain.OpPDFToImages:
			dpi, _ := strconv.Atoi(orDefault(values["dpi"], "150")) //nolint:errcheck
			dl, err = c.PDFToImages(ctx, files[0], orDefault(values["format"], "jpg"), dpi, nil)
		case domain.OpImagesToPDF:
			dl, err = c.ImagesToPDF(ctx, files, nil, nil)
		case domain.OpExtractText:
			text, err = c.ExtractText(ctx, files[0], nil)
		case domain.OpWatermark:
			dl, err = c.Watermark(ctx, files[0], values["watermark"], "text", nil)
		case domain.OpRotate:
			angle, _ := strconv.Atoi(orDefault(values["angle"], "90")) //nolint:errcheck
			dl, err = c.Rotate(ctx, files[0], orDefault(values["pages"], "all"), angle, nil)
		case domain.OpSecure:
			dl, err = c.Secure(ctx, files[0], values["password"], nil)
		case domain.OpUnlock:
			dl, err = c.Unlock(ctx, files[0], values["password"], nil)
		case domain.OpOrganize:
			dl, err = c.Organize(ctx, files[0], orDefault(values["operation"], "reorder"), values["page_order"], nil)
		default:
			dl, err = c.Convert(ctx, op, files[0], nil)
		}

		bus.PublishOperation(domain.OperationEvent{Type: op, Success: err == nil})

		if err != nil {
			return toolDoneMsg{op: op, err: err}
		}
		if text != nil {
			return toolDoneMsg{op: op, text: text}
		}

		path, err := saveDownload(dl)
		if err != nil {
			return toolDoneMsg{op: op, err: err}
		}
		return toolDoneMsg{op: op, savedPath: path, size: int64(len(dl.Data))}
	}
}

// loadFormFiles reads one or more comma-separated paths into upload parts.
func loadFormFiles(paths string) ([]client.FormFile, error) {
	var files []client.FormFile
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(expandHome(p))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, client.FormFile{Name: filepath.Base(p), Data: data})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	return files, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// saveDownload writes a result into the working directory, never clobbering
// an existing file.
func saveDownload(dl *client.Download) (string, error) {
	path := uniquePath(dl.Filename)
	if err := os.WriteFile(path, dl.Data, 0644); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

func uniquePath(name string) string {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (m toolsModel) View() string {
	switch m.state {
	case toolsEditing, toolsRunning:
		return m.viewForm()
	case toolsDone:
		return m.viewDone()
	default:
		return m.viewPicker()
	}
}

func (m toolsModel) viewPicker() string {
	var sb strings.Builder
	sb.WriteString("\n")
	lastCategory := ""
	for i, s := range toolSpecs {
		if s.category != lastCategory {
			if lastCategory != "" {
				sb.WriteString("\n")
			}
			sb.WriteString("  " + CategoryStyle(s.category).Render(strings.ToUpper(s.category)) + "\n")
			lastCategory = s.category
		}
		title := normalStyle.Render(fmt.Sprintf("%-20s", s.op.Title()))
		prefix := "    "
		if i == m.cursor {
			title = selectedStyle.Render(fmt.Sprintf("%-20s", s.op.Title()))
			prefix = "  " + accentStyle.Render("> ")
		}
		sb.WriteString(prefix + title + dimStyle.Render(s.desc) + "\n")
	}
	return sb.String()
}

func (m toolsModel) viewForm() string {
	var sb strings.Builder
	sb.WriteString("\n  " + selectedStyle.Render(m.tool.op.Title()) + "  " + dimStyle.Render(m.tool.desc) + "\n\n")
	for i, f := range m.fields {
		sb.WriteString(renderField(f, m.state == toolsEditing && i == m.fieldIdx, m.animFrame) + "\n")
	}
	sb.WriteString("\n")
	if m.state == toolsRunning {
		dots := strings.Repeat(".", (m.animFrame/6)%4)
		sb.WriteString("  " + accentStyle.Render("processing"+dots) + "\n")
	} else if m.errMsg != "" {
		sb.WriteString("  " + errStyle.Render(m.errMsg) + "\n")
	}
	return sb.String()
}

func (m toolsModel) viewDone() string {
	var sb strings.Builder
	sb.WriteString("\n  " + selectedStyle.Render(m.tool.op.Title()) + "\n\n")

	switch {
	case m.errMsg != "":
		sb.WriteString("  " + errStyle.Render("failed: ") + normalStyle.Render(m.errMsg) + "\n")
	case m.text != nil:
		meta := fmt.Sprintf("%d pages · %d characters", m.text.PageCount, m.text.CharCount)
		if m.text.UsedOCR() {
			meta += " · " + goldStyle.Render("OCR")
		}
		sb.WriteString("  " + okStyle.Render("✓ text extracted") + "  " + dimStyle.Render(meta) + "\n\n")
		preview := strings.Split(m.text.Text, "\n")
		maxLines := m.height - 8
		if maxLines < 5 {
			maxLines = 10
		}
		if len(preview) > maxLines {
			preview = preview[:maxLines]
		}
		for _, line := range preview {
			sb.WriteString("  " + normalStyle.Render(truncStr(line, m.width-4)) + "\n")
		}
	default:
		sb.WriteString("  " + okStyle.Render("✓ saved ") + selectedStyle.Render(m.savedPath) +
			"  " + dimStyle.Render(humanSize(m.savedSize)) + "\n")
	}
	return sb.String()
}

// helpKeys returns the context help entries for the current tools state.
func (m toolsModel) helpKeys() string {
	switch m.state {
	case toolsEditing:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "run") + "  " + helpEntry("esc", "back")
	case toolsRunning:
		return helpEntry("", "working...")
	case toolsDone:
		if m.errMsg != "" {
			return helpEntry("r", "retry") + "  " + helpEntry("esc", "back")
		}
		return helpEntry("c", "copy") + "  " + helpEntry("enter", "back")
	default:
		return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}
}

func (m toolsModel) editing() bool { return m.state == toolsEditing }
