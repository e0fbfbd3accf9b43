package components

import tea "github.com/charmbracelet/bubbletea"

// Focusable describes components that can gain or lose focus.
type Focusable interface {
	Focus() tea.Cmd
	Blur()
	Focused() bool
}

// Scrollable captures the common scrolling operations supported by viewports.
type Scrollable interface {
	ScrollUp(lines int)
	ScrollDown(lines int)
	HalfPageUp()
	HalfPageDown()
}

// FocusRing moves focus through a fixed list of components. At most one item
// is focused at a time.
type FocusRing struct {
	items []Focusable
	index int
}

// NewFocusRing returns a ring positioned on the first item, without focusing it.
func NewFocusRing(items ...Focusable) *FocusRing {
	return &FocusRing{items: items}
}

// Index returns the position of the current item.
func (r *FocusRing) Index() int {
	return r.index
}

// Current returns the current item, or nil for an empty ring.
func (r *FocusRing) Current() Focusable {
	if len(r.items) == 0 {
		return nil
	}
	return r.items[r.index]
}

// Focus focuses the current item and blurs the others.
func (r *FocusRing) Focus() tea.Cmd {
	if len(r.items) == 0 {
		return nil
	}
	r.Blur()
	return r.items[r.index].Focus()
}

// Blur removes focus from every item.
func (r *FocusRing) Blur() {
	for _, item := range r.items {
		item.Blur()
	}
}

// Next advances to the following item for which skip returns false and
// focuses it. A nil skip visits every item.
func (r *FocusRing) Next(skip func(index int) bool) tea.Cmd {
	for range r.items {
		r.index = (r.index + 1) % len(r.items)
		if skip == nil || !skip(r.index) {
			break
		}
	}
	return r.Focus()
}

// Reset moves back to the first item without changing focus.
func (r *FocusRing) Reset() {
	r.index = 0
}
