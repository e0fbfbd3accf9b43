package components

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeFocusable struct {
	focused bool
}

func (f *fakeFocusable) Focus() tea.Cmd { f.focused = true; return nil }
func (f *fakeFocusable) Blur()          { f.focused = false }
func (f *fakeFocusable) Focused() bool  { return f.focused }

func focusedIndexes(items ...*fakeFocusable) []int {
	var out []int
	for i, item := range items {
		if item.Focused() {
			out = append(out, i)
		}
	}
	return out
}

func TestFocusRingCyclesAndSkips(t *testing.T) {
	a, b, c := &fakeFocusable{}, &fakeFocusable{}, &fakeFocusable{}
	ring := NewFocusRing(a, b, c)

	ring.Focus()
	if got := focusedIndexes(a, b, c); len(got) != 1 || got[0] != 0 {
		t.Fatalf("after Focus() focused = %v, want [0]", got)
	}

	ring.Next(nil)
	if ring.Index() != 1 || !b.Focused() || a.Focused() {
		t.Errorf("Next() index = %d, focused = %v", ring.Index(), focusedIndexes(a, b, c))
	}

	ring.Next(func(i int) bool { return i == 2 })
	if ring.Index() != 0 || !a.Focused() {
		t.Errorf("Next(skip 2) index = %d, want 0", ring.Index())
	}

	ring.Blur()
	if got := focusedIndexes(a, b, c); len(got) != 0 {
		t.Errorf("Blur() left %v focused", got)
	}
	if ring.Current() != Focusable(a) {
		t.Error("Current() should be the first item")
	}
}

func TestFocusRingWithTextInputs(t *testing.T) {
	first, second := textinput.New(), textinput.New()
	ring := NewFocusRing(&first, &second)

	ring.Focus()
	ring.Next(nil)
	if first.Focused() || !second.Focused() {
		t.Errorf("focus = (%v, %v), want (false, true)", first.Focused(), second.Focused())
	}
	ring.Reset()
	if ring.Index() != 0 {
		t.Errorf("Reset() index = %d, want 0", ring.Index())
	}
}

func TestEmptyFocusRing(t *testing.T) {
	ring := NewFocusRing()
	if ring.Current() != nil || ring.Focus() != nil {
		t.Error("empty ring should have no current item")
	}
}

func TestNewViewport(t *testing.T) {
	vp := NewViewport(40, 10)
	if vp.Width != 40 || vp.Height != 10 {
		t.Errorf("NewViewport() size = %dx%d, want 40x10", vp.Width, vp.Height)
	}
	if vp.MouseWheelDelta != 3 {
		t.Errorf("NewViewport() MouseWheelDelta = %d, want 3", vp.MouseWheelDelta)
	}
	var _ Scrollable = vp
}

type pingMsg struct{ id int }

func TestAfterEmitsMessage(t *testing.T) {
	cmd := After(time.Millisecond, pingMsg{id: 7})
	if cmd == nil {
		t.Fatal("After() returned nil")
	}
	if got, ok := cmd().(pingMsg); !ok || got.id != 7 {
		t.Errorf("After() message = %#v, want pingMsg{id: 7}", got)
	}
}
