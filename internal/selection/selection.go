// Package selection tracks the fetched seasons and which one is selected.
package selection

import (
	"sync"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/samber/lo"
)

// State is the coarse state of the machine.
type State int

const (
	// NoResult holds no seasons; nothing can be selected.
	NoResult State = iota
	// HasResult holds at least one season and a valid selection.
	HasResult
)

func (s State) String() string {
	if s == HasResult {
		return "has_result"
	}
	return "no_result"
}

// Ticket identifies one fetch attempt. Completions carrying an older ticket
// than the latest Begin are ignored.
type Ticket uint64

// Snapshot is a copy of the machine state.
type Snapshot struct {
	State    State
	Seasons  []episode.SeasonBucket
	Show     *episode.Show
	Selected int
	Err      string
	Pending  bool
}

// Machine is safe for concurrent use.
type Machine struct {
	mu       sync.RWMutex
	seq      Ticket
	pending  bool
	seasons  []episode.SeasonBucket
	show     *episode.Show
	selected int
	err      string
}

// New returns a machine in NoResult.
func New() *Machine {
	return &Machine{}
}

// Begin records a new fetch attempt. The previous result and error are
// cleared immediately.
func (m *Machine) Begin() Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.pending = true
	m.seasons = nil
	m.show = nil
	m.selected = 0
	m.err = ""
	return m.seq
}

// Succeed applies a fetch result. The first season becomes selected; an empty
// result leaves the machine in NoResult. Returns false for a stale ticket.
func (m *Machine) Succeed(t Ticket, result *episode.Result) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t != m.seq {
		return false
	}
	m.pending = false
	m.err = ""
	m.show = nil
	m.seasons = nil
	m.selected = 0
	if result == nil {
		return true
	}

	m.show = result.Show
	if len(result.Seasons) > 0 {
		m.seasons = append([]episode.SeasonBucket(nil), result.Seasons...)
		m.selected = m.seasons[0].Season
	}
	return true
}

// Fail records the error of a fetch attempt. Returns false for a stale ticket.
func (m *Machine) Fail(t Ticket, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t != m.seq {
		return false
	}
	m.pending = false
	m.seasons = nil
	m.show = nil
	m.selected = 0
	if err != nil {
		m.err = err.Error()
	}
	return true
}

// Select changes the selected season. Unknown seasons, or any call while in
// NoResult, leave the selection untouched and return false.
func (m *Machine) Select(season int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !lo.ContainsBy(m.seasons, func(b episode.SeasonBucket) bool { return b.Season == season }) {
		return false
	}
	m.selected = season
	return true
}

// Step moves the selection by delta positions, clamped to the season list.
func (m *Machine) Step(delta int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.seasons) == 0 {
		return false
	}
	_, idx, _ := lo.FindIndexOf(m.seasons, func(b episode.SeasonBucket) bool { return b.Season == m.selected })
	next := min(max(idx+delta, 0), len(m.seasons)-1)
	if next == idx {
		return false
	}
	m.selected = m.seasons[next].Season
	return true
}

// State reports NoResult or HasResult.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state()
}

func (m *Machine) state() State {
	if len(m.seasons) == 0 {
		return NoResult
	}
	return HasResult
}

// Seasons returns a copy of the current seasons.
func (m *Machine) Seasons() []episode.SeasonBucket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]episode.SeasonBucket(nil), m.seasons...)
}

// Show returns the show metadata of the current result, if any.
func (m *Machine) Show() *episode.Show {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.show
}

// SelectedSeason returns the selected season number, or 0 in NoResult.
func (m *Machine) SelectedSeason() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Selected returns the selected bucket.
func (m *Machine) Selected() (episode.SeasonBucket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Find(m.seasons, func(b episode.SeasonBucket) bool { return b.Season == m.selected })
}

// Err returns the message of the last failed fetch.
func (m *Machine) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Pending reports whether the latest fetch has not completed yet.
func (m *Machine) Pending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending
}

// Snapshot returns a consistent copy of the whole state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:    m.state(),
		Seasons:  append([]episode.SeasonBucket(nil), m.seasons...),
		Show:     m.show,
		Selected: m.selected,
		Err:      m.err,
		Pending:  m.pending,
	}
}
