package theme

import (
	"runtime"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func clearTerminalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SSH_CLIENT", "SSH_TTY", "SSH_CONNECTION"} {
		t.Setenv(key, "")
	}
	t.Setenv("TERM", "xterm-256color")
}

func TestIcon(t *testing.T) {
	tests := []struct {
		name  string
		ascii bool
		key   string
		want  string
	}{
		{name: "emoji", key: "season", want: "📁"},
		{name: "ascii", ascii: true, key: "season", want: "[S]"},
		{name: "same in both", ascii: true, key: "id", want: "#"},
		{name: "unknown", key: "missing", want: ""},
		{name: "unknown ascii", ascii: true, key: "missing", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			th := New(WithASCII(tc.ascii))
			if got := th.Icon(tc.key); got != tc.want {
				t.Errorf("Icon(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestGlyphsHaveBothForms(t *testing.T) {
	for name, g := range glyphs {
		if g.emoji == "" || g.ascii == "" {
			t.Errorf("glyph %q = %+v, want emoji and ascii forms", name, g)
		}
	}
}

func TestNewDetectsPlainTerminal(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "ssh client", key: "SSH_CLIENT", val: "10.0.0.1 5000 22"},
		{name: "ssh tty", key: "SSH_TTY", val: "/dev/pts/1"},
		{name: "ssh connection", key: "SSH_CONNECTION", val: "10.0.0.1 5000 10.0.0.2 22"},
		{name: "dumb terminal", key: "TERM", val: "dumb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearTerminalEnv(t)
			t.Setenv(tc.key, tc.val)
			if !New().ASCII() {
				t.Errorf("New().ASCII() with %s=%q = false, want true", tc.key, tc.val)
			}
		})
	}
}

func TestNewPrefersEmoji(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("plain icons are always used on Windows")
	}
	clearTerminalEnv(t)

	th := New()
	if th.ASCII() {
		t.Fatalf("New().ASCII() = true, want false")
	}
	if got, want := th.Icon("tv"), "📺"; got != want {
		t.Errorf("Icon(%q) = %q, want %q", "tv", got, want)
	}
}

func TestWithASCIIOverridesDetection(t *testing.T) {
	clearTerminalEnv(t)
	t.Setenv("SSH_TTY", "/dev/pts/1")

	if New(WithASCII(false)).ASCII() {
		t.Errorf("New(WithASCII(false)).ASCII() = true, want false")
	}
}

func TestWithColors(t *testing.T) {
	custom := Colors{
		Primary:    lipgloss.Color("#000001"),
		Secondary:  lipgloss.Color("#000002"),
		Accent:     lipgloss.Color("#000003"),
		Background: lipgloss.Color("#000004"),
		Muted:      lipgloss.Color("#000005"),
		Success:    lipgloss.Color("#000006"),
		Error:      lipgloss.Color("#000007"),
	}

	th := New(WithColors(custom))
	if diff := cmp.Diff(custom, th.Colors()); diff != "" {
		t.Errorf("New(WithColors) Colors() mismatch (-want +got):\n%s", diff)
	}
	if got := th.ErrorStyle().GetForeground(); got != custom.Error {
		t.Errorf("ErrorStyle() foreground = %v, want %v", got, custom.Error)
	}
}

func TestBadgeStyleVariants(t *testing.T) {
	th := New()
	colors := th.Colors()

	tests := []struct {
		name string
		kind BadgeKind
		want lipgloss.Color
	}{
		{name: "info", kind: BadgeInfo, want: colors.Accent},
		{name: "success", kind: BadgeSuccess, want: colors.Success},
		{name: "error", kind: BadgeError, want: colors.Error},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			style := th.BadgeStyle(tc.kind)
			if bg := style.GetBackground(); bg != tc.want {
				t.Errorf("BadgeStyle(%v) background = %v, want %v", tc.kind, bg, tc.want)
			}
			if fg := style.GetForeground(); fg != colors.Background {
				t.Errorf("BadgeStyle(%v) foreground = %v, want %v", tc.kind, fg, colors.Background)
			}
		})
	}
}

func TestHeaderStyle(t *testing.T) {
	th := New()
	style := th.HeaderStyle()

	if !style.GetBold() {
		t.Errorf("HeaderStyle() bold = false, want true")
	}
	if bg := style.GetBackground(); bg != th.Colors().Primary {
		t.Errorf("HeaderStyle() background = %v, want %v", bg, th.Colors().Primary)
	}
	if got := style.GetAlignHorizontal(); got != lipgloss.Center {
		t.Errorf("HeaderStyle() alignment = %v, want %v", got, lipgloss.Center)
	}
}

func TestStatusBarStylePadding(t *testing.T) {
	top, right, bottom, left := New().StatusBarStyle().GetPadding()
	if diff := cmp.Diff([]int{0, statusPadding, 0, statusPadding}, []int{top, right, bottom, left}); diff != "" {
		t.Errorf("StatusBarStyle() padding mismatch (-want +got):\n%s", diff)
	}
}

func TestPanelStyle(t *testing.T) {
	th := New()
	style := th.PanelStyle()

	if border := style.GetBorderStyle(); border != lipgloss.RoundedBorder() {
		t.Errorf("PanelStyle() border = %v, want rounded", border)
	}
	top, right, bottom, left := style.GetPadding()
	if diff := cmp.Diff([]int{panelPadding, panelPadding, panelPadding, panelPadding}, []int{top, right, bottom, left}); diff != "" {
		t.Errorf("PanelStyle() padding mismatch (-want +got):\n%s", diff)
	}
	if fg := style.GetBorderTopForeground(); fg != th.Colors().Accent {
		t.Errorf("PanelStyle() border color = %v, want %v", fg, th.Colors().Accent)
	}
}

func TestPaneBorder(t *testing.T) {
	th := New()
	if got := th.PaneBorder(true); got != th.Colors().Primary {
		t.Errorf("PaneBorder(true) = %v, want %v", got, th.Colors().Primary)
	}
	if got := th.PaneBorder(false); got != th.Colors().Muted {
		t.Errorf("PaneBorder(false) = %v, want %v", got, th.Colors().Muted)
	}
}

func TestSeasonTabStyle(t *testing.T) {
	th := New()

	selected := th.SeasonTabStyle(true)
	if !selected.GetBold() {
		t.Errorf("SeasonTabStyle(true) bold = false, want true")
	}
	if bg := selected.GetBackground(); bg != th.Colors().Accent {
		t.Errorf("SeasonTabStyle(true) background = %v, want %v", bg, th.Colors().Accent)
	}

	other := th.SeasonTabStyle(false)
	if other.GetBold() {
		t.Errorf("SeasonTabStyle(false) bold = true, want false")
	}
	if fg := other.GetForeground(); fg != th.Colors().Secondary {
		t.Errorf("SeasonTabStyle(false) foreground = %v, want %v", fg, th.Colors().Secondary)
	}
}
