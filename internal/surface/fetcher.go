// Package surface holds the two cooperating components of title-fetch: the
// Fetcher, which looks up a show and tracks the selected season, and the
// Renamer, which receives titles over the bus and previews new file names.
package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/Digital-Shane/title-fetch/internal/selection"
	"github.com/sirupsen/logrus"
)

// ErrNothingSelected is returned by copy and hand-off without a selected season.
var ErrNothingSelected = errors.New("no season selected")

// Recorder receives user visible operations for the history log.
type Recorder interface {
	Record(op log.OperationType, provider, subject, detail string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(log.OperationType, string, string, string, error) {}

// Fetcher runs provider lookups and owns the season selection.
type Fetcher struct {
	machine   *selection.Machine
	registry  *provider.Registry
	bus       *bus.Bus
	clipboard Clipboard
	recorder  Recorder
	log       *logrus.Entry
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) FetcherOption {
	return func(f *Fetcher) {
		f.clipboard = c
	}
}

// WithRecorder sets where fetch, select, copy and hand-off are recorded.
func WithRecorder(r Recorder) FetcherOption {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// WithFetcherLogger sets the diagnostics logger.
func WithFetcherLogger(l *logrus.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = l.WithField("component", "fetcher")
	}
}

// NewFetcher builds a Fetcher publishing hand-offs on b.
func NewFetcher(registry *provider.Registry, b *bus.Bus, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		machine:   selection.New(),
		registry:  registry,
		bus:       b,
		clipboard: SystemClipboard{},
		recorder:  nopRecorder{},
		log:       logrus.WithField("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch looks up query with the provider of kind. The previous result is
// cleared before the lookup starts; on failure the error is both returned and
// kept as the displayed message.
func (f *Fetcher) Fetch(ctx context.Context, kind provider.Kind, query episode.Query) error {
	ticket := f.machine.Begin()
	entry := f.log.WithFields(logrus.Fields{"provider": kind.String(), "query": query.Name()})

	result, err := f.run(ctx, kind, query)
	if err != nil {
		if f.machine.Fail(ticket, err) {
			entry.WithError(err).Warn("fetch failed")
		}
		f.recorder.Record(log.OpFetch, kind.String(), subject(query), "", err)
		return err
	}

	if !f.machine.Succeed(ticket, result) {
		entry.Debug("discarding stale fetch result")
		return nil
	}
	seasons := len(result.Seasons)
	entry.WithField("seasons", seasons).Info("fetch succeeded")
	f.recorder.Record(log.OpFetch, kind.String(), subject(query), fmt.Sprintf("%d seasons", seasons), nil)
	return nil
}

func (f *Fetcher) run(ctx context.Context, kind provider.Kind, query episode.Query) (result *episode.Result, err error) {
	p, err := f.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &provider.ProviderError{Provider: p.Name(), Code: provider.CodeUnknown, Message: fmt.Sprintf("%s failed: %v", p.Name(), r)}
		}
	}()
	return p.Fetch(ctx, query)
}

func subject(q episode.Query) string {
	if q.HasID() {
		return fmt.Sprintf("#%d", q.AnimeID)
	}
	return strings.TrimSpace(q.AnimeName)
}

// Select changes the selected season. Unknown seasons are ignored.
func (f *Fetcher) Select(season int) bool {
	if !f.machine.Select(season) {
		return false
	}
	f.recorder.Record(log.OpSelect, "", "", fmt.Sprintf("season %d", season), nil)
	return true
}

// Step moves the selection by delta seasons.
func (f *Fetcher) Step(delta int) bool {
	return f.machine.Step(delta)
}

// Snapshot returns the current selection state.
func (f *Fetcher) Snapshot() selection.Snapshot {
	return f.machine.Snapshot()
}

// SelectedTitles returns the titles of the selected season.
func (f *Fetcher) SelectedTitles() ([]string, bool) {
	bucket, ok := f.machine.Selected()
	if !ok {
		return nil, false
	}
	return append([]string{}, bucket.Titles...), true
}

// SelectedText returns the selected season's titles, one per line.
func (f *Fetcher) SelectedText() string {
	titles, _ := f.SelectedTitles()
	return episode.JoinTitles(titles)
}

// CopySelected writes the selected titles to the clipboard.
func (f *Fetcher) CopySelected() error {
	titles, ok := f.SelectedTitles()
	if !ok {
		return ErrNothingSelected
	}
	err := f.clipboard.WriteText(episode.JoinTitles(titles))
	if err != nil {
		err = fmt.Errorf("copy to clipboard: %w", err)
	}
	f.recorder.Record(log.OpCopy, "", "", fmt.Sprintf("%d titles", len(titles)), err)
	return err
}

// HandOff publishes the selected titles on send_episodes.
func (f *Fetcher) HandOff() error {
	titles, ok := f.SelectedTitles()
	if !ok {
		return ErrNothingSelected
	}
	err := bus.Publish(f.bus, bus.SendEpisodes, bus.EpisodeTitles{EpisodeTitles: titles})
	f.recorder.Record(log.OpHandOff, "", "", fmt.Sprintf("%d titles", len(titles)), err)
	return err
}
