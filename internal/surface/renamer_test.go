package surface

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func newMemDir(t *testing.T, dir string, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, dir+"/"+f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestRenamerIgnoresMalformedPayload(t *testing.T) {
	b := newTestBus(t)
	var focused atomic.Int32
	r := NewRenamer(WithFocuser(FocusFunc(func() { focused.Add(1) })))
	r.SetText("keep me")
	r.Mount(b)
	defer r.Unmount()

	b.PublishRaw(bus.SendEpisodesChannel, []byte(`{"episodeTitles":"not-an-array"}`))
	flush(t, b)

	if r.Text() != "keep me" {
		t.Errorf("Text() = %q, want unchanged", r.Text())
	}
	if focused.Load() != 0 {
		t.Error("focus requested for a malformed payload")
	}
}

func TestRenamerUnmountIsIdempotent(t *testing.T) {
	b := newTestBus(t)
	r := NewRenamer()
	r.Mount(b)
	r.Mount(b)

	if got := b.Subscribers(bus.SendEpisodesChannel); got != 1 {
		t.Errorf("Subscribers(send_episodes) after remount = %d, want 1", got)
	}
	if !r.Mounted() {
		t.Error("Mounted() = false after Mount")
	}

	r.Unmount()
	r.Unmount()

	for _, ch := range []string{bus.SendEpisodesChannel, bus.DirectoryChangedChannel, bus.TriggerReloadChannel} {
		if got := b.Subscribers(ch); got != 0 {
			t.Errorf("Subscribers(%s) after Unmount = %d, want 0", ch, got)
		}
	}

	_ = bus.Publish(b, bus.SendEpisodes, bus.EpisodeTitles{EpisodeTitles: []string{"late"}})
	flush(t, b)
	if r.Text() != "" {
		t.Errorf("unmounted renamer received %q", r.Text())
	}
}

func TestRenamerReloadsOnDirectoryChange(t *testing.T) {
	b := newTestBus(t)
	fs := newMemDir(t, "/anime/naruto",
		"Naruto S01E01 - Enter Naruto.mkv",
		"Naruto S01E02.mkv",
		"notes.txt",
	)
	if err := fs.MkdirAll("/anime/bleach/extras", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/anime/bleach/Bleach S01E01 - Substitute.mp4", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(fs, "/anime/naruto", b)
	changes := atomic.Int32{}
	r := NewRenamer(WithSource(src), WithOnChange(func() { changes.Add(1) }))
	r.Mount(b)
	defer r.Unmount()

	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Enter Naruto", ""}, r.Titles()); diff != "" {
		t.Errorf("Titles() mismatch (-want +got):\n%s", diff)
	}

	if err := src.SetDir("/anime/bleach"); err != nil {
		t.Fatalf("SetDir() error = %v", err)
	}
	flush(t, b)

	if diff := cmp.Diff([]string{"Substitute"}, r.Titles()); diff != "" {
		t.Errorf("Titles() after directory change mismatch (-want +got):\n%s", diff)
	}
	if changes.Load() != 1 {
		t.Errorf("onChange called %d times, want 1", changes.Load())
	}

	_ = bus.Publish(b, bus.TriggerReload, bus.Trigger{Reason: "Files renamed"})
	flush(t, b)
	if changes.Load() != 2 {
		t.Errorf("onChange called %d times after trigger-reload, want 2", changes.Load())
	}
}

func TestDirSourceSetDirRejectsFiles(t *testing.T) {
	fs := newMemDir(t, "/tv", "Show S01E01.mkv")
	src := NewDirSource(fs, "/tv", nil)

	if err := src.SetDir("/tv/Show S01E01.mkv"); err == nil {
		t.Error("SetDir(file) should fail")
	}
	if err := src.SetDir("/missing"); err == nil {
		t.Error("SetDir(missing) should fail")
	}
	if src.Dir() != "/tv" {
		t.Errorf("Dir() = %q, want /tv", src.Dir())
	}
}

type brokenSource struct{}

func (brokenSource) Files() ([]string, error)        { return nil, errors.New("permission denied") }
func (brokenSource) EpisodeNames() ([]string, error) { return nil, errors.New("permission denied") }

func TestRenamerReloadError(t *testing.T) {
	r := NewRenamer(WithSource(brokenSource{}))
	r.SetText("A")

	if err := r.Reload(); err == nil {
		t.Fatal("Reload() error = nil")
	}
	if r.Err() != "permission denied" || r.Text() != "A" {
		t.Errorf("after failed reload Err() = %q, Text() = %q", r.Err(), r.Text())
	}
	if _, _, err := r.PreviewSource(); err == nil {
		t.Error("PreviewSource() error = nil")
	}
}

func TestRenamerPreview(t *testing.T) {
	fs := newMemDir(t, "/tv",
		"Naruto S01E02.mkv",
		"Naruto S01E01 - Old.mkv",
		"cover.jpg",
	)
	r := NewRenamer(WithSource(NewDirSource(fs, "/tv", nil)))
	r.SetText("Enter Naruto\r\n  My Name Is Konohamaru!  \n")

	current, proposed, err := r.PreviewSource()
	if err != nil {
		t.Fatalf("PreviewSource() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Naruto S01E01 - Old.mkv", "Naruto S01E02.mkv"}, current); diff != "" {
		t.Errorf("current names mismatch (-want +got):\n%s", diff)
	}
	want := []string{"Naruto S01E01 - Enter Naruto.mkv", "Naruto S01E02 - My Name Is Konohamaru!.mkv"}
	if diff := cmp.Diff(want, proposed); diff != "" {
		t.Errorf("proposed names mismatch (-want +got):\n%s", diff)
	}

	if got, _, _ := NewRenamer().PreviewSource(); got != nil {
		t.Errorf("PreviewSource() without source = %v, want nil", got)
	}
}
