// Package gridui provides the Bubble Tea interface for reviewing and editing
// the current period and browsing the risk report.
package gridui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/conselho/internal/council"
	"github.com/verte-zerg/conselho/internal/export"
	"github.com/verte-zerg/conselho/internal/merge"
	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

const (
	tabGrid = iota
	tabReport
)

const (
	maxCellWidth = 18
	minCellWidth = 3
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB77E"))
	columnTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
	selectedCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A"))
	textCellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E6B450"))
	tableMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// SaveFunc persists the current-period dataset and returns where it went.
type SaveFunc func(model.Dataset) (string, error)

// Model implements the Bubble Tea grid UI.
type Model struct {
	session *council.Session
	save    SaveFunc

	tabs      []string
	activeTab int

	width  int
	height int

	grid    model.Dataset
	columns []model.Field
	row     int
	col     int
	rowTop  int
	colLeft int

	editMode  bool
	editInput textinput.Model

	reportTable table.Model
	reportRev   uint64

	status string
	errMsg string
}

// NewModel constructs a grid UI over a session. save may be nil, which
// disables saving.
func NewModel(s *council.Session, save SaveFunc) *Model {
	m := &Model{
		session: s,
		save:    save,
		tabs:    []string{"Period 3", "Report"},
	}
	m.editInput = textinput.New()
	m.editInput.Prompt = "Value: "
	m.editInput.CharLimit = 0
	m.editInput.Cursor.SetMode(cursor.CursorBlink)
	m.reportTable = table.New(
		table.WithColumns(reportColumns()),
		table.WithHeight(1),
	)
	m.reportTable.SetStyles(reportTableStyles())
	m.refreshGrid()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editMode {
			return m.updateEdit(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab", "shift+tab":
			m.activeTab = 1 - m.activeTab
			m.syncFocus()
			return m, tea.ClearScreen
		case "ctrl+s":
			m.saveGrid()
			return m, nil
		}
		if m.activeTab == tabReport {
			var cmd tea.Cmd
			m.reportTable, cmd = m.reportTable.Update(msg)
			return m, cmd
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "g", "home":
		m.row = 0
		m.ensureVisible()
	case "G", "end":
		m.row = maxInt(0, len(m.grid.Records)-1)
		m.ensureVisible()
	case "enter", "e":
		return m.startEdit()
	}
	return m, nil
}

func (m *Model) startEdit() (tea.Model, tea.Cmd) {
	if len(m.grid.Records) == 0 || len(m.columns) == 0 {
		return m, nil
	}
	m.editMode = true
	m.errMsg = ""
	m.status = ""
	m.editInput.SetValue(m.currentValue().String())
	m.editInput.CursorEnd()
	return m, m.editInput.Focus()
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editMode = false
		m.editInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.commitEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m *Model) commitEdit() {
	m.editMode = false
	m.editInput.Blur()
	rec := m.grid.Records[m.row]
	field := m.columns[m.col]
	if err := m.session.EditCell(merge.Key(rec), field, m.editInput.Value()); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s: %s updated", rec.Get(schema.StudentName).String(), field)
	m.refreshGrid()
	m.refreshReport()
}

func (m *Model) saveGrid() {
	if m.save == nil {
		m.errMsg = "saving is not configured"
		return
	}
	path, err := m.save(m.session.WorkingSet())
	if err != nil {
		m.errMsg = err.Error()
		m.status = ""
		return
	}
	m.errMsg = ""
	m.status = "Saved " + path
}

func (m *Model) currentValue() model.Value {
	if m.row >= len(m.grid.Records) || m.col >= len(m.columns) {
		return model.Value{}
	}
	return m.grid.Records[m.row].Get(m.columns[m.col])
}

func (m *Model) moveCursor(dRow, dCol int) {
	m.row = clamp(m.row+dRow, 0, len(m.grid.Records)-1)
	m.col = clamp(m.col+dCol, 0, len(m.columns)-1)
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	_, bodyHeight, _ := m.layoutHeights()
	visibleRows := maxInt(1, bodyHeight-1)
	if m.row < m.rowTop {
		m.rowTop = m.row
	}
	if m.row >= m.rowTop+visibleRows {
		m.rowTop = m.row - visibleRows + 1
	}
	if m.col < m.colLeft {
		m.colLeft = m.col
	}
	for m.colLeft < m.col && !m.columnFits(m.colLeft, m.col) {
		m.colLeft++
	}
}

func (m *Model) columnFits(from, to int) bool {
	if m.width <= 0 {
		return true
	}
	total := 0
	for i := from; i <= to; i++ {
		total += m.columnWidth(i) + 1
	}
	return total <= m.width
}

func (m *Model) refreshGrid() {
	m.grid = m.session.WorkingSet()
	m.columns = gridColumns(m.grid.Headers)
	m.row = clamp(m.row, 0, len(m.grid.Records)-1)
	m.col = clamp(m.col, 0, len(m.columns)-1)
}

func (m *Model) refreshReport() {
	rev := m.session.Revision()
	if rev == m.reportRev {
		return
	}
	m.reportRev = rev
	report := m.session.Report()
	rows := make([]table.Row, 0, len(report))
	for _, r := range report {
		rows = append(rows, table.Row(export.ReportCells(r)))
	}
	m.reportTable.SetRows(rows)
}

func (m *Model) syncFocus() {
	if m.activeTab == tabReport {
		m.refreshReport()
		m.reportTable.Focus()
	} else {
		m.reportTable.Blur()
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.reportTable.SetWidth(m.width)
	m.reportTable.SetHeight(maxInt(1, bodyHeight-1))
	promptWidth := lipgloss.Width(m.editInput.Prompt)
	m.editInput.Width = maxInt(10, m.width-promptWidth-2)
	m.ensureVisible()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 2
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	th := m.session.Thresholds()
	summary := fmt.Sprintf("Students: %d  min average=%g  min attendance=%g%%",
		len(m.grid.Records), th.MinAverage, th.MinAttendance)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabReport {
		if len(m.reportTable.Rows()) == 0 {
			return fitLines("No students to report.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.reportTable.View()), m.width, height)
	}
	if len(m.grid.Records) == 0 {
		return fitLines("No students loaded.", m.width, height)
	}
	return fitLines(m.renderGrid(height), m.width, height)
}

func (m *Model) renderGrid(height int) string {
	last := m.colLeft
	for last+1 < len(m.columns) && m.columnFits(m.colLeft, last+1) {
		last++
	}

	lines := make([]string, 0, height)
	var b strings.Builder
	for c := m.colLeft; c <= last; c++ {
		if c > m.colLeft {
			b.WriteByte(' ')
		}
		b.WriteString(columnTitleStyle.Render(fitCell(string(m.columns[c]), m.columnWidth(c))))
	}
	lines = append(lines, b.String())

	end := minInt(len(m.grid.Records), m.rowTop+maxInt(1, height-1))
	for r := m.rowTop; r < end; r++ {
		b.Reset()
		rec := m.grid.Records[r]
		for c := m.colLeft; c <= last; c++ {
			if c > m.colLeft {
				b.WriteByte(' ')
			}
			v := rec.Get(m.columns[c])
			cell := fitCell(v.String(), m.columnWidth(c))
			switch {
			case r == m.row && c == m.col:
				cell = selectedCellStyle.Render(cell)
			case v.Kind == model.KindText && schema.IsSubject(m.columns[c]):
				cell = textCellStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) columnWidth(c int) int {
	field := m.columns[c]
	w := runewidth.StringWidth(string(field))
	for _, rec := range m.grid.Records {
		if cw := runewidth.StringWidth(rec.Get(field).String()); cw > w {
			w = cw
		}
	}
	return clamp(w, minCellWidth, maxCellWidth)
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.editMode:
		help = m.editInput.View() + "\n" + headerStyle.Render("enter: apply  esc: cancel  (blank clears, 7,5 and 7.5 are numbers)")
	case m.activeTab == tabReport:
		help = headerStyle.Render("Switch: tab  Scroll: up/down/pgup/pgdn  Save period 3: ctrl+s  Quit: q")
	default:
		help = headerStyle.Render("Switch: tab  Move: arrows/hjkl  Edit: enter  Save period 3: ctrl+s  Quit: q")
	}
	if m.editMode {
		return help
	}
	switch {
	case m.errMsg != "":
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		return help + "\n" + statusStyle.Render(truncateLine(m.status, m.width))
	}
	return help
}

// gridColumns puts identification fields first, then every other schema
// field, then any unrecognized headers in their original order.
func gridColumns(headers []model.Field) []model.Field {
	out := make([]model.Field, 0, len(schema.Fields)+len(headers))
	seen := map[model.Field]struct{}{}
	for _, f := range schema.Fields {
		out = append(out, f)
		seen[f] = struct{}{}
	}
	for _, h := range headers {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func reportColumns() []table.Column {
	cols := make([]table.Column, 0, len(export.ReportHeaders))
	for _, h := range export.ReportHeaders {
		w := runewidth.StringWidth(h)
		switch h {
		case "StudentName":
			w = 24
		case "Alert":
			w = 18
		}
		cols = append(cols, table.Column{Title: h, Width: w})
	}
	return cols
}

func reportTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func fitCell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return export.PadCell(s, width, false)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
