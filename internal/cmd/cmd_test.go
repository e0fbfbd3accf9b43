package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/title-fetch/internal/config"
	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

type stubProvider struct {
	kind    provider.Kind
	apiKey  bool
	result  *episode.Result
	queries []episode.Query
}

func (s *stubProvider) Kind() provider.Kind  { return s.kind }
func (s *stubProvider) Name() string         { return s.kind.String() }
func (s *stubProvider) Description() string  { return "stub" }
func (s *stubProvider) RequiresAPIKey() bool { return s.apiKey }

func (s *stubProvider) Fetch(_ context.Context, q episode.Query) (*episode.Result, error) {
	s.queries = append(s.queries, q)
	if err := provider.ValidateQuery(s, q); err != nil {
		return nil, err
	}
	return s.result, nil
}

type fakeClipboard struct{ text string }

func (c *fakeClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

func titles(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}

func narutoResult() *episode.Result {
	return &episode.Result{
		Show: &episode.Show{ID: 20, Name: "Naruto", PremieredYear: 2002},
		Seasons: []episode.SeasonBucket{
			{Season: 1, StartEpisode: 1, EndEpisode: 25, Titles: titles("Episode", 25)},
			{Season: 2, StartEpisode: 26, EndEpisode: 30, Titles: titles("Later", 5)},
		},
	}
}

type testEnv struct {
	fs   afero.Fs
	clip *fakeClipboard
	reg  []provider.Provider
}

func newTestEnv(t *testing.T, providers ...provider.Provider) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	keyring.MockInit()
	t.Cleanup(func() { log.SetFs(nil) })
	return &testEnv{fs: afero.NewMemMapFs(), clip: &fakeClipboard{}, reg: providers}
}

// run executes args against a fresh command tree sharing the environment.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	a := &app{
		fs:        e.fs,
		registry:  func(*config.Config) *provider.Registry { return provider.NewRegistry(e.reg...) },
		clipboard: e.clip,
	}
	root := a.rootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	a.finish()
	return stdout.String(), stderr.String(), err
}

func TestFetchPrintsSelectedSeason(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: provider.KindJikan, result: narutoResult()})

	stdout, stderr, err := env.run(t, "", "fetch", "Naruto", "--provider", "jikan")
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if diff := cmp.Diff(episode.JoinTitles(titles("Episode", 25))+"\n", stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []string{"Naruto (2002)", "* S1  episodes 1-25  (25 titles)", "  S2  episodes 26-30  (5 titles)"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestFetchSeasonAndCopy(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: provider.KindJikan, result: narutoResult()})

	stdout, _, err := env.run(t, "", "fetch", "--provider", "jikan", "--id", "20", "--season", "2", "--copy")
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	want := episode.JoinTitles(titles("Later", 5))
	if stdout != want+"\n" {
		t.Errorf("stdout = %q, want %q", stdout, want+"\n")
	}
	if env.clip.text != want {
		t.Errorf("clipboard = %q, want %q", env.clip.text, want)
	}
}

func TestFetchUnknownSeason(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: provider.KindJikan, result: narutoResult()})

	_, _, err := env.run(t, "", "fetch", "Naruto", "-p", "jikan", "--season", "9")
	if err == nil || !strings.Contains(err.Error(), "season 9 not found (available: 1, 2)") {
		t.Errorf("fetch --season 9 error = %v", err)
	}
}

func TestFetchJSON(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: provider.KindJikan, result: narutoResult()})

	stdout, _, err := env.run(t, "", "fetch", "Naruto", "-p", "jikan", "--json")
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	var got fetchOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	want := fetchOutput{
		Provider: "jikan",
		Show:     narutoResult().Show,
		Selected: 1,
		Seasons:  narutoResult().Seasons,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown provider", args: []string{"fetch", "Naruto", "-p", "anidb"}, want: "unknown provider"},
		{name: "empty query", args: []string{"fetch", "-p", "jikan"}, want: "You must provide either a show ID or a show name."},
		{name: "tvdb without key", args: []string{"fetch", "Naruto", "-p", "tvdb"}, want: "API key required"},
		{name: "unregistered provider", args: []string{"fetch", "Naruto", "-p", "tvmaze"}, want: "not registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t,
				&stubProvider{kind: provider.KindJikan, result: narutoResult()},
				&stubProvider{kind: provider.KindTVDB, apiKey: true, result: narutoResult()},
			)
			_, _, err := env.run(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestFetchTVDBKeyFromKeyring(t *testing.T) {
	stub := &stubProvider{kind: provider.KindTVDB, apiKey: true, result: narutoResult()}
	env := newTestEnv(t, stub)

	if _, _, err := env.run(t, "", "config", "set-tvdb-key", "from-keyring"); err != nil {
		t.Fatalf("set-tvdb-key error = %v", err)
	}
	if _, _, err := env.run(t, "", "fetch", "--id", "81189", "-p", "tvdb"); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if _, _, err := env.run(t, "", "fetch", "--id", "81189", "-p", "tvdb", "--api-key", "from-flag"); err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	got := []string{stub.queries[0].APIKey, stub.queries[1].APIKey}
	if diff := cmp.Diff([]string{"from-keyring", "from-flag"}, got); diff != "" {
		t.Errorf("API keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchRecordsHistory(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: provider.KindJikan, result: narutoResult()})

	if _, _, err := env.run(t, "", "fetch", "Naruto", "-p", "jikan", "--copy"); err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	sessions, err := log.ReadSessions(0)
	if err != nil {
		t.Fatalf("ReadSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("ReadSessions() returned %d sessions, want 1", len(sessions))
	}
	dir, err := log.HistoryDir()
	if err != nil {
		t.Fatalf("HistoryDir() error = %v", err)
	}
	files, err := afero.Glob(env.fs, filepath.Join(dir, "*.json"))
	if err != nil || len(files) != 1 {
		t.Errorf("history files on the app filesystem = %v (err %v), want one", files, err)
	}
	var ops []log.OperationType
	for _, op := range sessions[0].Operations {
		ops = append(ops, op.Type)
	}
	if diff := cmp.Diff([]log.OperationType{log.OpFetch, log.OpCopy}, ops); diff != "" {
		t.Errorf("recorded ops mismatch (-want +got):\n%s", diff)
	}

	stdout, _, err := env.run(t, "", "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	for _, want := range []string{"fetch", "2 ops", "jikan", "Naruto", "2 seasons"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("history output missing %q:\n%s", want, stdout)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := env.run(t, "", "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if strings.TrimSpace(stdout) != "No sessions recorded." {
		t.Errorf("stdout = %q", stdout)
	}
}

func writeFiles(t *testing.T, fs afero.Fs, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := afero.WriteFile(fs, dir+"/"+name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPreviewTitlesFromStdin(t *testing.T) {
	env := newTestEnv(t)
	writeFiles(t, env.fs, "/tv", "Naruto S01E01 - Old.mkv", "Naruto S01E02.mkv", "Naruto S01E03.mkv", "notes.txt")

	stdout, stderr, err := env.run(t, "Enter Naruto\nMy Name Is Konohamaru!\n", "preview", "/tv", "--titles", "-")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	want := "  Naruto S01E01 - Old.mkv\n→ Naruto S01E01 - Enter Naruto.mkv\n" +
		"  Naruto S01E02.mkv\n→ Naruto S01E02 - My Name Is Konohamaru!.mkv\n" +
		"  Naruto S01E03.mkv\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr, "2 of 3 files would change") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestPreviewTitlesFromFile(t *testing.T) {
	env := newTestEnv(t)
	writeFiles(t, env.fs, "/tv", "Show S02E01 - Pilot.mp4")
	writeFiles(t, env.fs, "/lists", "titles.txt")
	if err := afero.WriteFile(env.fs, "/lists/titles.txt", []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run(t, "", "preview", "/tv", "-t", "/lists/titles.txt")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	if want := "  Show S02E01 - Pilot.mp4\n→ Show S02E01.mp4\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}

	if _, _, err := env.run(t, "", "preview", "/tv", "-t", "/lists/missing.txt"); err == nil {
		t.Error("preview with a missing titles file should fail")
	}
}

func TestPreviewShift(t *testing.T) {
	env := newTestEnv(t)
	writeFiles(t, env.fs, "/tv", "Naruto S02E013.mkv", "Naruto S02E014 - Two.mkv")

	stdout, _, err := env.run(t, "", "preview", "/tv", "--shift=-12")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	want := "  Naruto S02E013.mkv\n→ Naruto S02E001.mkv\n" +
		"  Naruto S02E014 - Two.mkv\n→ Naruto S02E002 - Two.mkv\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}

	_, _, err = env.run(t, "", "preview", "/tv", "--shift=-20")
	if err == nil || !strings.Contains(err.Error(), "lowest episode is E13") {
		t.Errorf("preview --shift=-20 error = %v", err)
	}
}

func TestPreviewSearchReplace(t *testing.T) {
	env := newTestEnv(t)
	writeFiles(t, env.fs, "/tv", "[Sub] Naruto S01E01 [1080p].mkv", "[Sub] Naruto S01E02 [1080p].mkv", "Naruto S01E03.mkv")

	stdout, stderr, err := env.run(t, "", "preview", "/tv", "--search", " [1080p]")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	want := "  Naruto S01E03.mkv\n" +
		"  [Sub] Naruto S01E01 [1080p].mkv\n→ [Sub] Naruto S01E01.mkv\n" +
		"  [Sub] Naruto S01E02 [1080p].mkv\n→ [Sub] Naruto S01E02.mkv\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr, "2 of 3 files would change") {
		t.Errorf("stderr = %q", stderr)
	}
	if ok, _ := afero.Exists(env.fs, "/tv/[Sub] Naruto S01E01 [1080p].mkv"); !ok {
		t.Error("preview --search renamed a file on disk")
	}

	stdout, _, err = env.run(t, "", "preview", "/tv", "--search", "[Sub]", "--replace", "[Fansub]")
	if err != nil {
		t.Fatalf("preview --replace error = %v", err)
	}
	if !strings.Contains(stdout, "→ [Fansub] Naruto S01E02 [1080p].mkv\n") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestPreviewSearchReplaceErrors(t *testing.T) {
	env := newTestEnv(t)
	writeFiles(t, env.fs, "/tv", "Naruto S01E01.mkv")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "replace without search", args: []string{"--replace", "x"}, want: "--replace requires --search"},
		{name: "empty search", args: []string{"--search", ""}, want: "search text cannot be empty"},
		{name: "search with shift", args: []string{"--search", "a", "--shift", "1"}, want: "none of the others can be"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.run(t, "", append([]string{"preview", "/tv"}, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("preview %v error = %v, want it to contain %q", tc.args, err, tc.want)
			}
		})
	}
}

func TestPreviewCurrentTitles(t *testing.T) {
	env := newTestEnv(t)
	if err := env.fs.MkdirAll("/empty", 0755); err != nil {
		t.Fatal(err)
	}
	_, stderr, err := env.run(t, "", "preview", "/empty")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	if !strings.Contains(stderr, "No video files found.") {
		t.Errorf("stderr = %q", stderr)
	}

	if _, _, err := env.run(t, "", "preview", "/missing"); err == nil {
		t.Error("preview of a missing directory should fail")
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	path, _, err := env.run(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	path = strings.TrimSpace(path)
	if !strings.HasSuffix(path, "/.title-fetch/config.json") {
		t.Errorf("config path = %q", path)
	}

	if _, _, err := env.run(t, "", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if ok, _ := afero.Exists(env.fs, path); !ok {
		t.Errorf("config init did not write %s", path)
	}
	if _, _, err := env.run(t, "", "config", "init"); err == nil {
		t.Error("second config init should fail")
	}

	t.Setenv("TITLE_FETCH_TVDB_API_KEY", "abcdef123456")
	t.Setenv("TITLE_FETCH_DEFAULT_PROVIDER", "jikan")
	stdout, _, err := env.run(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	var shown config.Config
	if err := json.Unmarshal([]byte(stdout), &shown); err != nil {
		t.Fatalf("config show printed invalid JSON: %v", err)
	}
	if shown.TVDBAPIKey != "********3456" || shown.DefaultProvider != "jikan" {
		t.Errorf("config show = %+v", shown)
	}
}

func TestConfigKeyringCommands(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.run(t, "", "config", "set-tvdb-key", "  "); err == nil {
		t.Error("set-tvdb-key with a blank key should fail")
	}
	if _, _, err := env.run(t, "", "config", "set-tvdb-key", "secret"); err != nil {
		t.Fatalf("set-tvdb-key error = %v", err)
	}
	if key, _ := config.TVDBKey(); key != "secret" {
		t.Errorf("TVDBKey() = %q, want secret", key)
	}
	if _, _, err := env.run(t, "", "config", "delete-tvdb-key"); err != nil {
		t.Fatalf("delete-tvdb-key error = %v", err)
	}
	if key, _ := config.TVDBKey(); key != "" {
		t.Errorf("TVDBKey() after delete = %q", key)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("TITLE_FETCH_REQUEST_TIMEOUT_SECONDS", "0")

	_, _, err := env.run(t, "", "config", "path")
	if err == nil || !strings.Contains(err.Error(), "request_timeout_seconds") {
		t.Errorf("error = %v, want request_timeout_seconds validation", err)
	}

	t.Setenv("TITLE_FETCH_REQUEST_TIMEOUT_SECONDS", "5")
	if _, _, err := env.run(t, "", "--log-level", "loud", "config", "path"); err == nil {
		t.Error("an invalid --log-level should fail")
	}
}

func TestNewRegistry(t *testing.T) {
	reg := newRegistry(config.DefaultConfig())
	var names []string
	for _, p := range reg.List() {
		names = append(names, p.Kind().String())
	}
	if diff := cmp.Diff([]string{"tvdb", "jikan", "tvmaze"}, names); diff != "" {
		t.Errorf("providers mismatch (-want +got):\n%s", diff)
	}

	cfg := config.DefaultConfig()
	cfg.EnableCache = true
	for _, p := range newRegistry(cfg).List() {
		if _, ok := p.(*provider.CachingProvider); !ok {
			t.Errorf("provider %s is %T, want *provider.CachingProvider", p.Name(), p)
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "***",
		"abcd":         "****",
		"abcdef123456": "********3456",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
