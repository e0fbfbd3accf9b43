package theme

import (
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// Colors is the palette shared by every view.
type Colors struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
}

// BadgeKind selects the colors of a badge.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeError
)

const (
	panelPadding  = 1
	statusPadding = 1
)

var defaultColors = Colors{
	Primary:    lipgloss.Color("#2f5d7c"),
	Secondary:  lipgloss.Color("#4b7fa3"),
	Accent:     lipgloss.Color("#e0a458"),
	Background: lipgloss.Color("#f8f8f8"),
	Muted:      lipgloss.Color("#9ba8c0"),
	Success:    lipgloss.Color("#5dc796"),
	Error:      lipgloss.Color("#f04c56"),
}

// Theme bundles the palette and the icon style.
type Theme struct {
	colors Colors
	ascii  bool
}

// Option configures a Theme.
type Option func(*Theme)

// WithColors replaces the palette.
func WithColors(colors Colors) Option {
	return func(t *Theme) {
		t.colors = colors
	}
}

// WithASCII forces plain text icons on or off.
func WithASCII(ascii bool) Option {
	return func(t *Theme) {
		t.ascii = ascii
	}
}

// New returns a theme using the default palette. Icons fall back to plain
// text on terminals that rarely render emoji.
func New(opts ...Option) Theme {
	t := Theme{colors: defaultColors, ascii: plainTerminal()}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Default returns New().
func Default() Theme {
	return New()
}

func (t Theme) Colors() Colors {
	return t.colors
}

// ASCII reports whether icons render as plain text.
func (t Theme) ASCII() bool {
	return t.ascii
}

// Icon returns the glyph registered under name, or "" for unknown names.
func (t Theme) Icon(name string) string {
	g, ok := glyphs[name]
	if !ok {
		return ""
	}
	if t.ascii {
		return g.ascii
	}
	return g.emoji
}

func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(t.colors.Primary).
		Foreground(t.colors.Background).
		Align(lipgloss.Center)
}

func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.colors.Secondary).
		Foreground(t.colors.Background).
		Padding(0, statusPadding)
}

// PanelStyle is the rounded container of a pane. Callers override the border
// color with PaneBorder.
func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.colors.Accent).
		Padding(panelPadding)
}

func (t Theme) PanelTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Underline(true)
}

func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	bg := t.colors.Accent
	switch kind {
	case BadgeSuccess:
		bg = t.colors.Success
	case BadgeError:
		bg = t.colors.Error
	}
	return lipgloss.NewStyle().Padding(0, 1).Bold(true).Background(bg).Foreground(t.colors.Background)
}

// PaneBorder returns the border color of a pane given its focus.
func (t Theme) PaneBorder(focused bool) lipgloss.Color {
	if focused {
		return t.colors.Primary
	}
	return t.colors.Muted
}

func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors.Error).Bold(true)
}

// MutedStyle renders hints and placeholders.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors.Muted).Italic(true)
}

// SeasonTabStyle renders one entry of the season list.
func (t Theme) SeasonTabStyle(selected bool) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	if selected {
		return base.Bold(true).Background(t.colors.Accent).Foreground(t.colors.Background)
	}
	return base.Foreground(t.colors.Secondary)
}

// plainTerminal reports SSH sessions, dumb terminals and Windows consoles.
func plainTerminal() bool {
	for _, key := range []string{"SSH_CLIENT", "SSH_TTY", "SSH_CONNECTION"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return os.Getenv("TERM") == "dumb" || runtime.GOOS == "windows"
}

type glyph struct {
	emoji string
	ascii string
}

var glyphs = map[string]glyph{
	"tv":        {"📺", "[TV]"},
	"show":      {"📺", "[TV]"},
	"season":    {"📁", "[S]"},
	"episode":   {"🎬", "[E]"},
	"folder":    {"📂", "[D]"},
	"provider":  {"🌐", "[P]"},
	"search":    {"🔎", "[?]"},
	"key":       {"🔑", "[K]"},
	"calendar":  {"📅", "[C]"},
	"id":        {"#", "#"},
	"copy":      {"📋", "[c]"},
	"send":      {"📤", "[>]"},
	"receive":   {"📥", "[<]"},
	"preview":   {"👀", "[~]"},
	"success":   {"✅", "[v]"},
	"error":     {"❌", "[!]"},
	"pending":   {"⏳", "[.]"},
	"unknown":   {"❓", "[?]"},
	"rename":    {"✏️", "[+]"},
	"unchanged": {"=", "[=]"},
}
