package surface

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/Digital-Shane/title-fetch/internal/media"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// EpisodeSource supplies the file names the Renamer works on.
type EpisodeSource interface {
	// Files lists the video file names of the current directory.
	Files() ([]string, error)
	// EpisodeNames returns the current title of every coded video file.
	EpisodeNames() ([]string, error)
}

// DirSource lists a single directory. Subdirectories are not entered.
type DirSource struct {
	fs  afero.Fs
	bus *bus.Bus

	mu  sync.RWMutex
	dir string
}

// NewDirSource reads dir on fs. b may be nil when nobody listens for
// directory changes.
func NewDirSource(fs afero.Fs, dir string, b *bus.Bus) *DirSource {
	return &DirSource{fs: fs, bus: b, dir: filepath.Clean(dir)}
}

// Dir returns the current directory.
func (d *DirSource) Dir() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dir
}

// SetDir switches to dir and publishes directory-changed.
func (d *DirSource) SetDir(dir string) error {
	dir = filepath.Clean(dir)
	ok, err := afero.IsDir(d.fs, dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("%s is not a directory", dir)
	}

	d.mu.Lock()
	d.dir = dir
	d.mu.Unlock()

	if d.bus == nil {
		return nil
	}
	return bus.Publish(d.bus, bus.DirectoryChanged, bus.Trigger{Reason: "directory changed", Path: dir})
}

// Files returns the video files of the directory sorted by name.
func (d *DirSource) Files() ([]string, error) {
	dir := d.Dir()
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	return lo.FilterMap(entries, func(e os.FileInfo, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && media.IsVideo(e.Name())
	}), nil
}

// EpisodeNames returns the title after the SxxEyy code of every coded file.
func (d *DirSource) EpisodeNames() ([]string, error) {
	files, err := d.Files()
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(files, func(name string, _ int) (string, bool) {
		return media.CurrentTitle(name)
	}), nil
}
