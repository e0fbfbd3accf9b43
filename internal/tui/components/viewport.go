package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// NewViewport returns a borderless viewport that scrolls three lines per
// wheel step.
func NewViewport(width, height int) *viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()
	vp.MouseWheelDelta = 3
	return &vp
}
