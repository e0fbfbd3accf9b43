package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/Digital-Shane/title-fetch/internal/selection"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type fetchOptions struct {
	provider string
	id       int
	year     int
	apiKey   string
	season   int
	copy     bool
	json     bool
}

// fetchOutput is the --json document.
type fetchOutput struct {
	Provider string                 `json:"provider"`
	Show     *episode.Show          `json:"show,omitempty"`
	Selected int                    `json:"selected_season,omitempty"`
	Seasons  []episode.SeasonBucket `json:"seasons"`
}

func (a *app) fetchCommand() *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch [name]",
		Short: "Fetch episode titles from a provider",
		Long: `Fetch the episode list of a show and print the titles of one season.

Titles go to stdout one per line so they can be piped into other tools;
the show and season summary goes to stderr. Look a show up by --id or by
name, optionally narrowed with --year.`,
		Example: `  title-fetch fetch Naruto --provider jikan --year 2002
  title-fetch fetch --provider tvmaze --id 82 --season 2 --copy
  title-fetch fetch --provider tvdb --id 81189 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "provider: tvdb, jikan or tvmaze (default from config)")
	cmd.Flags().IntVar(&opts.id, "id", 0, "provider specific show ID")
	cmd.Flags().IntVarP(&opts.year, "year", "y", 0, "premiere year used to disambiguate a name")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "TheTVDB API key (default from config, env or keyring)")
	cmd.Flags().IntVarP(&opts.season, "season", "s", 0, "season to print (default the first)")
	cmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "copy the selected titles to the clipboard")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print every season as JSON")
	return cmd
}

// resolveQuery builds the query and provider kind from flags and config.
func (a *app) resolveQuery(kindFlag, name string, id, year int, apiKey string) (provider.Kind, episode.Query, error) {
	kind := a.cfg.Provider()
	if kindFlag != "" {
		k, err := provider.ParseKind(kindFlag)
		if err != nil {
			return 0, episode.Query{}, err
		}
		kind = k
	}

	q := episode.Query{AnimeID: id, AnimeName: strings.TrimSpace(name), Year: year}
	if kind == provider.KindTVDB {
		q.APIKey = a.tvdbKey(apiKey)
	}
	return kind, q, nil
}

// tvdbKey resolves the TVDB key. Keyring failures leave it empty so the
// provider reports the missing key.
func (a *app) tvdbKey(flag string) string {
	key, err := a.cfg.ResolveTVDBKey(flag)
	if err != nil {
		logrus.WithError(err).Warn("failed to read TVDB key from keyring")
	}
	return key
}

func (a *app) runFetch(cmd *cobra.Command, opts *fetchOptions, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	kind, q, err := a.resolveQuery(opts.provider, name, opts.id, opts.year, opts.apiKey)
	if err != nil {
		return err
	}

	b := newBus()
	defer b.Close()
	f := a.newFetcher(a.registry(a.cfg), b)

	if err := f.Fetch(cmd.Context(), kind, q); err != nil {
		return err
	}
	snap := f.Snapshot()
	if snap.State == selection.NoResult {
		fmt.Fprintln(cmd.ErrOrStderr(), "No episodes found.")
		return nil
	}

	if opts.season != 0 && !f.Select(opts.season) {
		available := lo.Map(snap.Seasons, func(s episode.SeasonBucket, _ int) string {
			return fmt.Sprint(s.Season)
		})
		return fmt.Errorf("season %d not found (available: %s)", opts.season, strings.Join(available, ", "))
	}
	snap = f.Snapshot()

	if opts.json {
		if err := writeJSON(cmd.OutOrStdout(), fetchOutput{
			Provider: kind.String(),
			Show:     snap.Show,
			Selected: snap.Selected,
			Seasons:  snap.Seasons,
		}); err != nil {
			return err
		}
	} else {
		printSummary(cmd.ErrOrStderr(), snap)
		fmt.Fprintln(cmd.OutOrStdout(), f.SelectedText())
	}

	if opts.copy {
		if err := f.CopySelected(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied titles to clipboard")
	}
	return nil
}

func printSummary(w io.Writer, snap selection.Snapshot) {
	if snap.Show != nil {
		if snap.Show.PremieredYear > 0 {
			fmt.Fprintf(w, "%s (%d)\n", snap.Show.Name, snap.Show.PremieredYear)
		} else {
			fmt.Fprintln(w, snap.Show.Name)
		}
	}
	for _, s := range snap.Seasons {
		marker := " "
		if s.Season == snap.Selected {
			marker = "*"
		}
		fmt.Fprintf(w, "%s S%d  episodes %d-%d  (%d titles)\n", marker, s.Season, s.StartEpisode, s.EndEpisode, s.Len())
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
