package workspace

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/Digital-Shane/title-fetch/internal/selection"
	"github.com/Digital-Shane/title-fetch/internal/surface"
	"github.com/Digital-Shane/title-fetch/internal/tui/components"
	"github.com/Digital-Shane/title-fetch/internal/tui/theme"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// Pane identifies the focused half of the screen.
type Pane int

const (
	FetchPane Pane = iota
	RenamePane
)

const (
	fieldID = iota
	fieldYear
	fieldName
	fieldAPIKey
)

// FetchDoneMsg is emitted when a fetch started from the UI completes.
type FetchDoneMsg struct{ Err error }

// FocusRenamerMsg asks the model to focus the rename pane.
type FocusRenamerMsg struct{}

// RenamerChangedMsg reports that the renamer text changed outside the UI.
type RenamerChangedMsg struct{}

type clearStatusMsg struct{ id int }

// Sender delivers messages into a running program.
type Sender func(tea.Msg)

// Directory is the renamer's working directory. surface.DirSource
// implements it.
type Directory interface {
	Dir() string
	SetDir(dir string) error
}

// WorkspaceModel shows the fetcher and the renamer side by side.
type WorkspaceModel struct {
	fetcher  *surface.Fetcher
	renamer  *surface.Renamer
	registry *provider.Registry
	kind     provider.Kind
	timeout  time.Duration
	bus      *bus.Bus
	dir      Directory

	inputs  []textinput.Model
	ring    *components.FocusRing
	editor  textarea.Model
	dirEdit textinput.Model
	titles  *viewport.Model
	preview *viewport.Model

	pane       Pane
	busy       bool
	editingDir bool
	reloading  bool
	status   string
	statusID int
	isError  bool

	width  int
	height int
	theme  theme.Theme

	sender atomic.Pointer[Sender]
}

// Option configures a WorkspaceModel during construction.
type Option func(*WorkspaceModel)

// WithTheme overrides the default theme.
func WithTheme(th theme.Theme) Option {
	return func(m *WorkspaceModel) {
		m.theme = th
	}
}

// WithProvider sets the initially selected provider.
func WithProvider(kind provider.Kind) Option {
	return func(m *WorkspaceModel) {
		m.kind = kind
	}
}

// WithAPIKey prefills the TVDB API key field.
func WithAPIKey(key string) Option {
	return func(m *WorkspaceModel) {
		m.inputs[fieldAPIKey].SetValue(key)
	}
}

// WithQuery prefills the query fields.
func WithQuery(q episode.Query) Option {
	return func(m *WorkspaceModel) {
		if q.AnimeID > 0 {
			m.inputs[fieldID].SetValue(strconv.Itoa(q.AnimeID))
		}
		if q.Year > 0 {
			m.inputs[fieldYear].SetValue(strconv.Itoa(q.Year))
		}
		m.inputs[fieldName].SetValue(q.AnimeName)
	}
}

// WithBus routes reload requests through b, where the mounted renamer
// listens. Without a bus the renamer is reloaded directly.
func WithBus(b *bus.Bus) Option {
	return func(m *WorkspaceModel) {
		m.bus = b
	}
}

// WithDirectory enables changing the renamer's directory with ctrl+d.
func WithDirectory(d Directory) Option {
	return func(m *WorkspaceModel) {
		m.dir = d
	}
}

// WithTimeout bounds each fetch started from the UI.
func WithTimeout(d time.Duration) Option {
	return func(m *WorkspaceModel) {
		m.timeout = d
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	return in
}

// NewWorkspaceModel builds the model. The renamer should be created with
// Focuser and OnChange so bus deliveries reach the running program.
func NewWorkspaceModel(fetcher *surface.Fetcher, renamer *surface.Renamer, registry *provider.Registry, opts ...Option) *WorkspaceModel {
	m := &WorkspaceModel{
		fetcher:  fetcher,
		renamer:  renamer,
		registry: registry,
		kind:     provider.KindTVMaze,
		timeout:  30 * time.Second,
		width:    80,
		height:   24,
	}

	m.inputs = []textinput.Model{
		newInput("e.g. 20", 10),
		newInput("e.g. 2002", 4),
		newInput("e.g. Naruto", 120),
		newInput("required for TVDB", 128),
	}
	m.inputs[fieldAPIKey].EchoMode = textinput.EchoPassword

	initOpts := append([]Option{WithTheme(theme.Default())}, opts...)
	for _, opt := range initOpts {
		opt(m)
	}

	m.ring = components.NewFocusRing(&m.inputs[fieldID], &m.inputs[fieldYear], &m.inputs[fieldName], &m.inputs[fieldAPIKey])
	m.ring.Next(func(i int) bool { return i != fieldName })

	m.editor = textarea.New()
	m.editor.Placeholder = "Episode titles, one per line"
	m.editor.ShowLineNumbers = true
	m.editor.CharLimit = 0
	m.editor.SetValue(renamer.Text())

	m.dirEdit = newInput("path of a directory", 4096)

	m.titles = components.NewViewport(0, 0)
	m.preview = components.NewViewport(0, 0)
	m.resize()
	return m
}

// SetSender wires the program that receives renamer notifications.
func (m *WorkspaceModel) SetSender(send Sender) {
	m.sender.Store(&send)
}

func (m *WorkspaceModel) send(msg tea.Msg) {
	if send := m.sender.Load(); send != nil && *send != nil {
		(*send)(msg)
	}
}

// RequestFocus implements surface.Focuser.
func (m *WorkspaceModel) RequestFocus() {
	m.send(FocusRenamerMsg{})
}

// NotifyChanged is passed to the renamer as its change callback.
func (m *WorkspaceModel) NotifyChanged() {
	m.send(RenamerChangedMsg{})
}

// Pane returns the focused pane.
func (m *WorkspaceModel) Pane() Pane { return m.pane }

// Provider returns the selected provider kind.
func (m *WorkspaceModel) Provider() provider.Kind { return m.kind }

// Status returns the status line text.
func (m *WorkspaceModel) Status() string { return m.status }

// EditorValue returns the rename pane text.
func (m *WorkspaceModel) EditorValue() string { return m.editor.Value() }

// EditingDir reports whether the directory prompt is open.
func (m *WorkspaceModel) EditingDir() bool { return m.editingDir }

func (m *WorkspaceModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.ring.Focus())
}

func (m *WorkspaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case FetchDoneMsg:
		m.busy = false
		m.refreshTitles()
		if msg.Err != nil {
			return m, m.setStatus(msg.Err.Error(), true)
		}
		snap := m.fetcher.Snapshot()
		if snap.State == selection.NoResult {
			return m, m.setStatus("No episodes found.", false)
		}
		return m, m.setStatus(fmt.Sprintf("Fetched %d seasons", len(snap.Seasons)), false)

	case FocusRenamerMsg:
		m.editor.SetValue(m.renamer.Text())
		m.refreshPreview()
		return m, m.focusPane(RenamePane)

	case RenamerChangedMsg:
		m.editor.SetValue(m.renamer.Text())
		m.refreshPreview()
		reloading := m.reloading
		m.reloading = false
		if err := m.renamer.Err(); err != "" {
			return m, m.setStatus(err, true)
		}
		if reloading {
			return m, m.setStatus("Reloaded episode names", false)
		}
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.isError = false
		}
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	return m, m.updateFocused(msg)
}

func (m *WorkspaceModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.editingDir {
		return m.handleDirKey(msg)
	}

	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit, true

	case "ctrl+o":
		next := RenamePane
		if m.pane == RenamePane {
			next = FetchPane
		}
		return m, m.focusPane(next), true

	case "ctrl+p":
		m.kind = m.kind.Next()
		if m.kind != provider.KindTVDB && m.ring.Index() == fieldAPIKey {
			m.ring.Next(m.skipField)
		}
		return m, nil, true

	case "pgup", "pgdown":
		delta := 1
		if msg.String() == "pgup" {
			delta = -1
		}
		if m.fetcher.Step(delta) {
			m.refreshTitles()
		}
		return m, nil, true

	case "ctrl+y":
		if err := m.fetcher.CopySelected(); err != nil {
			return m, m.setStatus(err.Error(), true), true
		}
		return m, m.setStatus("Copied titles to clipboard", false), true

	case "ctrl+s":
		if err := m.fetcher.HandOff(); err != nil {
			return m, m.setStatus(err.Error(), true), true
		}
		return m, m.setStatus("Sent titles to renamer", false), true

	case "ctrl+r":
		return m, m.reload(), true

	case "ctrl+d":
		if m.dir == nil {
			return m, m.setStatus("Changing directory is not available", true), true
		}
		m.editingDir = true
		m.dirEdit.SetValue("")
		m.dirEdit.Placeholder = m.dir.Dir()
		m.ring.Blur()
		m.editor.Blur()
		return m, tea.Batch(m.dirEdit.Focus(), m.setStatus("Enter a directory, Esc to cancel", false)), true
	}

	if m.pane == FetchPane {
		switch msg.String() {
		case "tab":
			return m, m.ring.Next(m.skipField), true
		case "enter":
			return m, m.startFetch(), true
		}
	}
	return m, nil, false
}

// handleDirKey drives the directory prompt. Every key except ctrl+c stays in
// the prompt.
func (m *WorkspaceModel) handleDirKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "esc":
		return m, m.closeDirPrompt(), true

	case "enter":
		path := strings.TrimSpace(m.dirEdit.Value())
		if path == "" {
			return m, m.closeDirPrompt(), true
		}
		// SetDir publishes directory-changed; the renamer reloads on delivery.
		if err := m.dir.SetDir(path); err != nil {
			return m, m.setStatus(err.Error(), true), true
		}
		return m, tea.Batch(m.closeDirPrompt(), m.setStatus("Opened "+m.dir.Dir(), false)), true
	}

	var cmd tea.Cmd
	m.dirEdit, cmd = m.dirEdit.Update(msg)
	return m, cmd, true
}

func (m *WorkspaceModel) closeDirPrompt() tea.Cmd {
	m.editingDir = false
	m.dirEdit.Blur()
	return m.focusPane(m.pane)
}

// reload asks the renamer to re-read the directory. With a bus the request
// goes out on trigger-reload and the result arrives as RenamerChangedMsg.
func (m *WorkspaceModel) reload() tea.Cmd {
	if m.bus == nil {
		if err := m.renamer.Reload(); err != nil {
			return m.setStatus(err.Error(), true)
		}
		m.editor.SetValue(m.renamer.Text())
		m.refreshPreview()
		return m.setStatus("Reloaded episode names", false)
	}

	if err := bus.Publish(m.bus, bus.TriggerReload, bus.Trigger{Reason: "reload requested"}); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.reloading = true
	return m.setStatus("Reloading episode names...", false)
}

func (m *WorkspaceModel) skipField(i int) bool {
	return i == fieldAPIKey && m.kind != provider.KindTVDB
}

func (m *WorkspaceModel) updateFocused(msg tea.Msg) tea.Cmd {
	if m.editingDir {
		var cmd tea.Cmd
		m.dirEdit, cmd = m.dirEdit.Update(msg)
		return cmd
	}
	if m.pane == RenamePane {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok && m.editor.Value() != m.renamer.Text() {
			m.renamer.SetText(m.editor.Value())
			m.refreshPreview()
		}
		return cmd
	}

	idx := m.ring.Index()
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return cmd
}

func (m *WorkspaceModel) focusPane(p Pane) tea.Cmd {
	m.pane = p
	if p == RenamePane {
		m.ring.Blur()
		return m.editor.Focus()
	}
	m.editor.Blur()
	return m.ring.Focus()
}

func (m *WorkspaceModel) query() (episode.Query, error) {
	q := episode.Query{
		AnimeName: strings.TrimSpace(m.inputs[fieldName].Value()),
		APIKey:    strings.TrimSpace(m.inputs[fieldAPIKey].Value()),
	}
	if v := strings.TrimSpace(m.inputs[fieldID].Value()); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return q, fmt.Errorf("ID must be a positive number")
		}
		q.AnimeID = id
	}
	if v := strings.TrimSpace(m.inputs[fieldYear].Value()); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			return q, fmt.Errorf("year must be a positive number")
		}
		q.Year = year
	}
	return q, nil
}

func (m *WorkspaceModel) startFetch() tea.Cmd {
	if m.busy {
		return nil
	}
	q, err := m.query()
	if err != nil {
		return m.setStatus(err.Error(), true)
	}

	m.busy = true
	m.status = "Fetching from " + m.providerName() + "..."
	m.isError = false

	fetcher, kind, timeout := m.fetcher, m.kind, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return FetchDoneMsg{Err: fetcher.Fetch(ctx, kind, q)}
	}
}

func (m *WorkspaceModel) setStatus(text string, isError bool) tea.Cmd {
	m.statusID++
	m.status = text
	m.isError = isError
	return components.After(5*time.Second, clearStatusMsg{id: m.statusID})
}

func (m *WorkspaceModel) providerName() string {
	if p, ok := m.registry.Get(m.kind); ok {
		return p.Name()
	}
	return m.kind.String()
}

func (m *WorkspaceModel) paneWidths() (int, int) {
	left := m.width / 2
	return left, m.width - left
}

func (m *WorkspaceModel) resize() {
	left, right := m.paneWidths()
	inner := func(w int) int { return max(w-4, 10) }

	for i := range m.inputs {
		m.inputs[i].Width = max(inner(left)-12, 5)
	}

	// header, provider line, inputs, status and help take the fixed rows.
	body := max(m.height-4, 8)
	m.titles.Width = inner(left)
	m.titles.Height = max(body-len(m.inputs)-6, 3)

	editorHeight := max((body-4)/2, 3)
	m.editor.SetWidth(inner(right))
	m.editor.SetHeight(editorHeight)
	m.preview.Width = inner(right)
	m.preview.Height = max(body-editorHeight-6, 2)
	m.dirEdit.Width = max(inner(right)-16, 5)

	m.refreshTitles()
	m.refreshPreview()
}

func (m *WorkspaceModel) refreshTitles() {
	snap := m.fetcher.Snapshot()
	selected, ok := lo.Find(snap.Seasons, func(b episode.SeasonBucket) bool {
		return b.Season == snap.Selected
	})
	if !ok {
		m.titles.SetContent(m.theme.MutedStyle().Render("No episodes loaded"))
		return
	}

	var b strings.Builder
	for i, title := range selected.Titles {
		line := fmt.Sprintf("%3d  %s", selected.StartEpisode+i, title)
		b.WriteString(runewidth.Truncate(line, m.titles.Width, "…"))
		b.WriteByte('\n')
	}
	m.titles.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *WorkspaceModel) refreshPreview() {
	current, proposed, err := m.renamer.PreviewSource()
	if err != nil {
		m.preview.SetContent(m.theme.ErrorStyle().Render(err.Error()))
		return
	}
	if len(current) == 0 {
		m.preview.SetContent(m.theme.MutedStyle().Render("No video files in directory"))
		return
	}

	var b strings.Builder
	for i, name := range proposed {
		icon := m.theme.Icon("unchanged")
		if name != current[i] {
			icon = m.theme.Icon("rename")
		}
		b.WriteString(runewidth.Truncate(icon+" "+name, m.preview.Width, "…"))
		b.WriteByte('\n')
	}
	m.preview.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *WorkspaceModel) View() string {
	var b strings.Builder

	header := m.theme.HeaderStyle().Width(m.width).Render(m.theme.Icon("tv") + " Title Fetch")
	b.WriteString(header)
	b.WriteByte('\n')

	left, right := m.paneWidths()
	body := max(m.height-3, 8)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFetchPane(left, body),
		m.renderRenamePane(right, body),
	)
	b.WriteString(panes)
	b.WriteByte('\n')
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *WorkspaceModel) sizedPanel(width, height int, focused bool) lipgloss.Style {
	style := m.theme.PanelStyle().BorderForeground(m.theme.PaneBorder(focused))
	if width > 0 {
		style = style.Width(max(width-style.GetHorizontalFrameSize(), 0))
	}
	if height > 0 {
		style = style.Height(max(height-style.GetVerticalFrameSize(), 0))
	}
	return style.Padding(0, 1)
}

func (m *WorkspaceModel) renderFetchPane(width, height int) string {
	var b strings.Builder
	title := m.theme.PanelTitleStyle().Render("Fetch")
	badge := m.theme.BadgeStyle(theme.BadgeInfo).Render(m.theme.Icon("provider") + " " + m.providerName())
	b.WriteString(title + "  " + badge + "\n")

	labels := []string{
		m.theme.Icon("id") + " ID",
		m.theme.Icon("calendar") + " Year",
		m.theme.Icon("search") + " Name",
		m.theme.Icon("key") + " API key",
	}
	for i, in := range m.inputs {
		if i == fieldAPIKey && m.kind != provider.KindTVDB {
			continue
		}
		label := runewidth.FillRight(labels[i], 11)
		b.WriteString(label + " " + in.View() + "\n")
	}

	snap := m.fetcher.Snapshot()
	switch {
	case m.busy:
		b.WriteString(m.theme.MutedStyle().Render(m.theme.Icon("pending") + " fetching...") + "\n")
	case snap.Err != "":
		b.WriteString(m.theme.ErrorStyle().Render(m.theme.Icon("error")+" "+snap.Err) + "\n")
	case snap.Show != nil:
		show := snap.Show.Name
		if snap.Show.PremieredYear > 0 {
			show = fmt.Sprintf("%s (%d)", show, snap.Show.PremieredYear)
		}
		b.WriteString(m.theme.Icon("show") + " " + show + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.renderSeasons(snap) + "\n")
	b.WriteString(m.titles.View())

	return m.sizedPanel(width, height, m.pane == FetchPane).Render(b.String())
}

func (m *WorkspaceModel) renderSeasons(snap selection.Snapshot) string {
	if len(snap.Seasons) == 0 {
		return m.theme.MutedStyle().Render("No seasons")
	}
	tabs := make([]string, 0, len(snap.Seasons))
	for _, s := range snap.Seasons {
		label := fmt.Sprintf("S%d (%d-%d)", s.Season, s.StartEpisode, s.EndEpisode)
		tabs = append(tabs, m.theme.SeasonTabStyle(s.Season == snap.Selected).Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *WorkspaceModel) renderRenamePane(width, height int) string {
	var b strings.Builder
	b.WriteString(m.theme.PanelTitleStyle().Render("Rename") + "\n")
	switch {
	case m.editingDir:
		b.WriteString(m.theme.Icon("folder") + " Directory: " + m.dirEdit.View() + "\n")
	case m.dir != nil:
		b.WriteString(m.theme.MutedStyle().Render(m.theme.Icon("folder")+" "+m.dir.Dir()) + "\n")
	}
	b.WriteString(m.editor.View() + "\n")
	b.WriteString(m.theme.PanelTitleStyle().Render(m.theme.Icon("preview")+" Preview") + "\n")
	b.WriteString(m.preview.View())
	return m.sizedPanel(width, height, m.pane == RenamePane).Render(b.String())
}

func (m *WorkspaceModel) renderStatus() string {
	help := "Enter: Fetch | Tab: Next field | Ctrl+P: Provider | PgUp/PgDn: Season | Ctrl+Y: Copy | Ctrl+S: Send | Ctrl+R: Reload | Ctrl+D: Directory | Ctrl+O: Pane | Esc: Quit"
	if m.status == "" {
		return m.theme.StatusBarStyle().Width(m.width).Render(runewidth.Truncate(help, max(m.width-2, 1), "…"))
	}
	text := m.status
	if m.isError {
		text = m.theme.Icon("error") + " " + text
	}
	return m.theme.StatusBarStyle().Width(m.width).Render(text)
}
