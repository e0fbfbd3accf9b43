package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// After emits msg once d has elapsed.
func After(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}
