package surface

import (
	"fmt"
	"sync"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/media"
	"github.com/sirupsen/logrus"
)

// Focuser brings the renamer to the front.
type Focuser interface {
	RequestFocus()
}

// FocusFunc adapts a function to Focuser.
type FocusFunc func()

func (f FocusFunc) RequestFocus() {
	if f != nil {
		f()
	}
}

// Renamer holds the editable episode titles and previews new file names.
type Renamer struct {
	source   EpisodeSource
	focus    Focuser
	onChange func()
	recorder Recorder
	log      *logrus.Entry

	mu   sync.RWMutex
	text string
	err  string
	subs []*bus.Subscription
}

// RenamerOption configures a Renamer.
type RenamerOption func(*Renamer)

// WithSource sets where Reload and PreviewSource read file names.
func WithSource(s EpisodeSource) RenamerOption {
	return func(r *Renamer) {
		r.source = s
	}
}

// WithFocuser sets who is asked for focus when titles arrive.
func WithFocuser(f Focuser) RenamerOption {
	return func(r *Renamer) {
		r.focus = f
	}
}

// WithOnChange registers a callback run after the text changes from a bus
// message.
func WithOnChange(fn func()) RenamerOption {
	return func(r *Renamer) {
		r.onChange = fn
	}
}

// WithRenamerRecorder sets where received titles are recorded.
func WithRenamerRecorder(rec Recorder) RenamerOption {
	return func(r *Renamer) {
		r.recorder = rec
	}
}

// WithRenamerLogger sets the diagnostics logger.
func WithRenamerLogger(l *logrus.Logger) RenamerOption {
	return func(r *Renamer) {
		r.log = l.WithField("component", "renamer")
	}
}

// NewRenamer returns an unmounted Renamer.
func NewRenamer(opts ...RenamerOption) *Renamer {
	r := &Renamer{
		focus:    FocusFunc(nil),
		recorder: nopRecorder{},
		log:      logrus.WithField("component", "renamer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount subscribes to send_episodes, directory-changed and trigger-reload.
// Mounting again first releases the previous subscriptions.
func (r *Renamer) Mount(b *bus.Bus) {
	r.Unmount()

	subs := []*bus.Subscription{
		bus.Subscribe(b, bus.SendEpisodes, r.receive),
		bus.Subscribe(b, bus.DirectoryChanged, r.reloadOn("directory changed")),
		bus.Subscribe(b, bus.TriggerReload, r.reloadOn("reload triggered")),
	}

	for _, sub := range subs {
		r.log.WithFields(logrus.Fields{"channel": sub.Channel(), "subscription": sub.ID()}).Debug("subscribed")
	}

	r.mu.Lock()
	r.subs = subs
	r.mu.Unlock()
}

// Unmount releases every subscription. Safe to call repeatedly.
func (r *Renamer) Unmount() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Mounted reports whether the renamer currently listens on a bus.
func (r *Renamer) Mounted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs) > 0
}

func (r *Renamer) receive(payload bus.EpisodeTitles) {
	r.SetText(episode.JoinTitles(payload.EpisodeTitles))
	r.recorder.Record(log.OpReceive, "", "", fmt.Sprintf("%d titles", len(payload.EpisodeTitles)), nil)
	r.changed()
	r.focus.RequestFocus()
}

func (r *Renamer) reloadOn(reason string) func(bus.Trigger) {
	return func(t bus.Trigger) {
		entry := r.log.WithField("reason", reason)
		if t.Reason != "" {
			entry = entry.WithField("message", t.Reason)
		}
		if err := r.Reload(); err != nil {
			entry.WithError(err).Warn("reload failed")
		} else {
			entry.Debug("reloaded episode names")
		}
		r.changed()
	}
}

func (r *Renamer) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Reload replaces the text with the current titles read from the source.
// Without a source it does nothing.
func (r *Renamer) Reload() error {
	if r.source == nil {
		return nil
	}
	names, err := r.source.EpisodeNames()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.err = err.Error()
		return err
	}
	r.err = ""
	r.text = episode.JoinTitles(names)
	return nil
}

// Text returns the raw editable text.
func (r *Renamer) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text
}

// SetText replaces the editable text.
func (r *Renamer) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = text
	r.err = ""
}

// Titles returns the text split into trimmed lines.
func (r *Renamer) Titles() []string {
	return episode.SplitTitles(r.Text())
}

// Err returns the last reload error message.
func (r *Renamer) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Preview applies the current titles to files without touching the disk.
func (r *Renamer) Preview(files []string) []string {
	return media.ApplyTitles(files, r.Titles())
}

// PreviewSource previews the files of the source. The first slice holds the
// current names, the second the proposed ones.
func (r *Renamer) PreviewSource() ([]string, []string, error) {
	if r.source == nil {
		return nil, nil, nil
	}
	files, err := r.source.Files()
	if err != nil {
		return nil, nil, err
	}
	return files, r.Preview(files), nil
}
