package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/surface"
	"github.com/Digital-Shane/title-fetch/internal/tui/workspace"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type tuiOptions struct {
	provider string
	id       int
	year     int
	name     string
	apiKey   string
}

func (a *app) tuiCommand() *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui [dir]",
		Short: "Open the fetch and rename workspace",
		Long: `Open the two-pane workspace. The left pane fetches titles, the right pane
holds the renamer for the video files of dir (default the current directory).

Ctrl+S sends the selected season to the renamer, which previews the new
file names. Files are never renamed on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "initial provider: tvdb, jikan or tvmaze")
	cmd.Flags().IntVar(&opts.id, "id", 0, "prefill the show ID")
	cmd.Flags().IntVarP(&opts.year, "year", "y", 0, "prefill the premiere year")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "prefill the show name")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "TheTVDB API key (default from config, env or keyring)")
	return cmd
}

func (a *app) runTUI(cmd *cobra.Command, opts *tuiOptions, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	kind, q, err := a.resolveQuery(opts.provider, opts.name, opts.id, opts.year, opts.apiKey)
	if err != nil {
		return err
	}
	apiKey := a.tvdbKey(opts.apiKey)

	// Log lines would tear the alt screen; keep them only when a file is set.
	if a.cfg.LogFile == "" {
		logrus.SetOutput(io.Discard)
		defer logrus.SetOutput(os.Stderr)
	}

	b := newBus()
	defer b.Close()
	registry := a.registry(a.cfg)
	fetcher := a.newFetcher(registry, b)
	source := surface.NewDirSource(a.fs, abs, b)

	var model *workspace.WorkspaceModel
	renamer := surface.NewRenamer(
		surface.WithSource(source),
		surface.WithFocuser(surface.FocusFunc(func() { model.RequestFocus() })),
		surface.WithOnChange(func() { model.NotifyChanged() }),
		surface.WithRenamerRecorder(log.Recorder{}),
		surface.WithRenamerLogger(logrus.StandardLogger()),
	)
	if err := renamer.Reload(); err != nil {
		return err
	}

	model = workspace.NewWorkspaceModel(fetcher, renamer, registry,
		workspace.WithProvider(kind),
		workspace.WithQuery(q),
		workspace.WithAPIKey(apiKey),
		workspace.WithBus(b),
		workspace.WithDirectory(source),
		// Jikan pages one request at a time, so a whole fetch gets several request budgets.
		workspace.WithTimeout(4*a.cfg.RequestTimeout()),
	)
	renamer.Mount(b)
	defer renamer.Unmount()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	model.SetSender(p.Send)
	_, err = p.Run()
	return err
}
