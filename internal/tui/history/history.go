package history

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/tui/components"
	"github.com/Digital-Shane/title-fetch/internal/tui/theme"
	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// recentOps is how many operations the details panel lists.
const recentOps = 8

// HistoryModel browses stored sessions with a details panel.
type HistoryModel struct {
	*treeview.TuiTreeModel[log.SessionSummary]
	width      int
	height     int
	splitRatio float64
	theme      theme.Theme

	detailsViewport *viewport.Model
	detailsFocused  bool
}

// Option configures a HistoryModel during construction.
type Option func(*HistoryModel)

// WithTheme overrides the default theme for the history TUI.
func WithTheme(th theme.Theme) Option {
	return func(m *HistoryModel) {
		m.theme = th
	}
}

// NewTree builds one node per session summary.
func NewTree(summaries []log.SessionSummary) *treeview.Tree[log.SessionSummary] {
	nodes := make([]*treeview.Node[log.SessionSummary], 0, len(summaries))
	for _, s := range summaries {
		name := fmt.Sprintf("%s - %s (%d ops)", s.Command, s.RelativeTime, s.Session.Metadata.TotalOps)
		nodes = append(nodes, treeview.NewNode(s.Session.Metadata.SessionID, name, s))
	}
	return treeview.NewTree(nodes)
}

// NewHistoryModel creates the browser for tree.
func NewHistoryModel(tree *treeview.Tree[log.SessionSummary], opts ...Option) *HistoryModel {
	m := &HistoryModel{
		width:      80,
		height:     24,
		splitRatio: 0.5,
	}

	initOpts := append([]Option{WithTheme(theme.Default())}, opts...)
	for _, opt := range initOpts {
		opt(m)
	}

	keyMap := treeview.DefaultKeyMap()
	keyMap.SearchStart = []string{}
	keyMap.Reset = []string{}

	treeWidth := m.treeWidth()
	m.TuiTreeModel = treeview.NewTuiTreeModel(tree,
		treeview.WithTuiWidth[log.SessionSummary](treeWidth),
		treeview.WithTuiHeight[log.SessionSummary](m.height-4),
		treeview.WithTuiAllowResize[log.SessionSummary](true),
		treeview.WithTuiDisableNavBar[log.SessionSummary](true),
		treeview.WithTuiKeyMap[log.SessionSummary](keyMap),
	)

	// header, borders and instructions
	m.detailsViewport = components.NewViewport(m.width-treeWidth-6, m.height-8)
	return m
}

func (m *HistoryModel) treeWidth() int {
	return int(float64(m.width)*m.splitRatio) - 2
}

// DetailsFocused reports whether keys scroll the details panel.
func (m *HistoryModel) DetailsFocused() bool { return m.detailsFocused }

// Focused returns the summary under the cursor.
func (m *HistoryModel) Focused() (log.SessionSummary, bool) {
	node := m.TuiTreeModel.Tree.GetFocusedNode()
	if node == nil {
		return log.SessionSummary{}, false
	}
	return *node.Data(), true
}

func (m *HistoryModel) Init() tea.Cmd {
	return nil
}

func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		treeWidth := m.treeWidth()
		treeModel, cmd := m.TuiTreeModel.Update(tea.WindowSizeMsg{Width: treeWidth, Height: m.height - 4})
		m.TuiTreeModel = treeModel.(*treeview.TuiTreeModel[log.SessionSummary])

		m.detailsViewport.Width = m.width - treeWidth - 6
		m.detailsViewport.Height = m.height - 8
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.detailsFocused = !m.detailsFocused
			return m, nil
		}
		if m.detailsFocused {
			switch msg.String() {
			case "up":
				m.detailsViewport.ScrollUp(1)
			case "down":
				m.detailsViewport.ScrollDown(1)
			case "pgup":
				m.detailsViewport.HalfPageUp()
			case "pgdown":
				m.detailsViewport.HalfPageDown()
			}
			return m, nil
		}
	}

	if m.detailsFocused {
		return m, nil
	}
	treeModel, cmd := m.TuiTreeModel.Update(msg)
	m.TuiTreeModel = treeModel.(*treeview.TuiTreeModel[log.SessionSummary])
	return m, cmd
}

func (m *HistoryModel) View() string {
	var b strings.Builder

	header := m.theme.HeaderStyle().Width(m.width).Render("Title Fetch History")
	b.WriteString(header)
	b.WriteByte('\n')

	leftWidth := int(float64(m.width) * m.splitRatio)
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSessionList(leftWidth, m.height-3),
		m.renderDetails(m.width-leftWidth, m.height-3),
	)
	b.WriteString(content)
	b.WriteByte('\n')

	focusInfo := "Tab: Details Focus | "
	if m.detailsFocused {
		focusInfo = "Tab: List Focus | "
	}
	instruction := focusInfo + "↑↓ Navigate | PgUp/PgDn: Page | Esc/q: Quit"
	b.WriteString(lipgloss.NewStyle().
		Italic(true).
		Width(m.width).
		Align(lipgloss.Center).
		Foreground(m.theme.Colors().Muted).
		Render(instruction))
	return b.String()
}

func (m *HistoryModel) sizedPanel(width, height int, borderColor lipgloss.Color) lipgloss.Style {
	style := m.theme.PanelStyle().BorderForeground(borderColor)
	if width > 0 {
		style = style.Width(max(width-style.GetHorizontalFrameSize(), 0))
	}
	if height > 0 {
		style = style.Height(max(height-style.GetVerticalFrameSize(), 0))
	}
	return style.Padding(0, 1)
}

func (m *HistoryModel) panelTitle(text string, width int, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(max(width-4, 0)).
		Align(lipgloss.Center).
		Render(text)
}

func (m *HistoryModel) renderSessionList(width, height int) string {
	colors := m.theme.Colors()
	content := m.panelTitle("Sessions", width, colors.Primary) + "\n" + m.TuiTreeModel.View()
	return m.sizedPanel(width, height, colors.Primary).Render(content)
}

func (m *HistoryModel) renderDetails(width, height int) string {
	colors := m.theme.Colors()
	if summary, ok := m.Focused(); ok {
		m.detailsViewport.SetContent(m.formatSessionDetails(summary, m.detailsViewport.Width))
	} else {
		m.detailsViewport.SetContent(m.theme.MutedStyle().Italic(true).Render("No sessions recorded"))
	}

	title := "Session Details"
	if m.detailsViewport.TotalLineCount() > m.detailsViewport.Height {
		if m.detailsFocused {
			title += " [Use ↑↓]"
		} else {
			title += " [Tab to scroll]"
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.panelTitle(title, width, colors.Secondary),
		"",
		m.detailsViewport.View(),
	)
	return m.sizedPanel(width, height, colors.Secondary).Render(content)
}

func (m *HistoryModel) formatSessionDetails(summary log.SessionSummary, width int) string {
	var b strings.Builder
	session := summary.Session
	colors := m.theme.Colors()

	label := lipgloss.NewStyle().Bold(true).Foreground(colors.Accent)
	value := lipgloss.NewStyle().Foreground(colors.Primary)
	indent := lipgloss.NewStyle().MarginLeft(2)

	b.WriteString(label.Render("Command: "))
	b.WriteString(value.Render(strings.Join(session.Metadata.CommandArgs, " ")))
	b.WriteString("\n\n")

	b.WriteString(label.Render("Time: "))
	b.WriteString(value.Render(summary.RelativeTime))
	b.WriteString("\n")
	b.WriteString(label.Render("Date: "))
	b.WriteString(value.Render(session.Metadata.Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString("\n\n")

	b.WriteString(label.Render("Directory: "))
	workDir := session.Metadata.WorkingDir
	if keep := width - 15; keep > 0 && len(workDir) > width-12 {
		workDir = "..." + workDir[len(workDir)-keep:]
	}
	b.WriteString(value.Render(workDir))
	b.WriteString("\n\n")

	b.WriteString(label.Render("Operations:"))
	b.WriteString("\n")
	stats := fmt.Sprintf("Total: %d\nSuccessful: %d\nFailed: %d",
		session.Metadata.TotalOps, session.Metadata.SuccessfulOps, session.Metadata.FailedOps)
	b.WriteString(indent.Render(value.Render(stats)))
	b.WriteString("\n\n")

	if n := len(session.Operations); n > 0 {
		b.WriteString(label.Render("Recent Operations:"))
		b.WriteString("\n")
		for _, op := range session.Operations[max(n-recentOps, 0):] {
			line := m.operationIcon(op) + " " + m.formatOperation(op, width-6)
			b.WriteString(indent.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(label.Render("Session ID: "))
	b.WriteString(m.theme.MutedStyle().Italic(true).Render(session.Metadata.SessionID))
	return b.String()
}

func (m *HistoryModel) operationIcon(op log.OperationLog) string {
	if !op.Success {
		return m.theme.Icon("error")
	}
	switch op.Type {
	case log.OpFetch:
		return m.theme.Icon("search")
	case log.OpSelect:
		return m.theme.Icon("season")
	case log.OpCopy:
		return m.theme.Icon("copy")
	case log.OpHandOff:
		return m.theme.Icon("send")
	case log.OpReceive:
		return m.theme.Icon("receive")
	case log.OpPreview:
		return m.theme.Icon("preview")
	default:
		return m.theme.Icon("unknown")
	}
}

// formatOperation renders op on one line, e.g. "fetch jikan Naruto: 2 seasons".
func (m *HistoryModel) formatOperation(op log.OperationLog, maxWidth int) string {
	parts := []string{string(op.Type)}
	for _, p := range []string{op.Provider, op.Subject} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	text := strings.Join(parts, " ")
	if op.Detail != "" {
		text += ": " + op.Detail
	}
	if !op.Success && op.Error != "" {
		text += " (failed)"
	}
	return runewidth.Truncate(text, max(maxWidth, 4), "...")
}
