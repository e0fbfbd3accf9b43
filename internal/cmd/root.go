package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/Digital-Shane/title-fetch/internal/bus"
	"github.com/Digital-Shane/title-fetch/internal/config"
	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/Digital-Shane/title-fetch/internal/provider/jikan"
	"github.com/Digital-Shane/title-fetch/internal/provider/tvdb"
	"github.com/Digital-Shane/title-fetch/internal/provider/tvmaze"
	"github.com/Digital-Shane/title-fetch/internal/surface"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares. Tests replace fs, registry and
// clipboard.
type app struct {
	configFile string
	logLevel   string

	fs        afero.Fs
	registry  func(*config.Config) *provider.Registry
	clipboard surface.Clipboard

	cfg    *config.Config
	closer io.Closer
}

func newApp() *app {
	return &app{
		fs:        afero.NewOsFs(),
		registry:  newRegistry,
		clipboard: surface.SystemClipboard{},
	}
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	a := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := a.rootCommand().ExecuteContext(ctx)
	stop()
	a.finish()
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "title-fetch",
		Short: "Fetch episode titles and preview them against your files",
		Long: `title-fetch looks up episode titles on TheTVDB, Jikan (MyAnimeList) or TVMaze,
groups them by season and hands the selected season to a renamer that previews
the titles against the SxxEyy coded video files of a directory.

Run "title-fetch tui" for the interactive two-pane workspace.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ~/.title-fetch/config.json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		a.fetchCommand(),
		a.tuiCommand(),
		a.previewCommand(),
		a.historyCommand(),
		a.configCommand(),
	)
	return root
}

// setup loads the configuration, then starts logging and the history session.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, err := a.configPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(a.fs, path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := log.Setup(cfg.LogLevel, cfg.LogJSON, cfg.LogFile)
	if err != nil {
		return err
	}
	a.cfg, a.closer = cfg, closer

	log.SetFs(a.fs)
	log.Initialize(cfg.EnableHistory, cfg.HistoryRetentionDays)
	if err := log.StartSession(cmd.Name(), args); err != nil {
		logrus.WithError(err).Warn("history disabled for this run")
	}
	return nil
}

// finish writes the history session and releases the log file.
func (a *app) finish() {
	if err := log.EndSession(); err != nil {
		logrus.WithError(err).Warn("failed to write history session")
	}
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

// newRegistry registers every provider, each wrapped with the configured cache.
func newRegistry(cfg *config.Config) *provider.Registry {
	timeout, ttl := cfg.RequestTimeout(), cfg.CacheTTL()
	return provider.NewRegistry(
		provider.WithCache(tvdb.New(), ttl),
		provider.WithCache(jikan.New(jikan.WithTimeout(timeout), jikan.WithRateLimit(cfg.JikanRequestsPerSecond)), ttl),
		provider.WithCache(tvmaze.New(tvmaze.WithTimeout(timeout)), ttl),
	)
}

func newBus() *bus.Bus {
	return bus.New(bus.WithLogger(logrus.StandardLogger()))
}

func (a *app) newFetcher(registry *provider.Registry, b *bus.Bus) *surface.Fetcher {
	return surface.NewFetcher(registry, b,
		surface.WithClipboard(a.clipboard),
		surface.WithRecorder(log.Recorder{}),
		surface.WithFetcherLogger(logrus.StandardLogger()),
	)
}
