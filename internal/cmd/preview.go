package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/media"
	"github.com/Digital-Shane/title-fetch/internal/surface"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type previewOptions struct {
	titles  string
	shift   int
	search  string
	replace string
}

func (a *app) previewCommand() *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview [dir]",
		Short: "Preview new file names without renaming",
		Long: `Preview what the video files of dir would be called.

With --titles the titles in the file (one per line, "-" for stdin) are applied
in order to the SxxEyy coded files; a blank line removes the existing title.
With --shift the episode numbers are moved by the given amount instead, and
with --search every occurrence of the text is replaced by --replace (empty by
default) in the names, extensions excluded. Without any of these flags the
current titles are listed. Nothing is renamed.`,
		Example: `  title-fetch fetch Naruto -p jikan | title-fetch preview ~/anime/naruto --titles -
  title-fetch preview . --shift -12
  title-fetch preview . --search "[1080p]"
  title-fetch preview . --search . --replace " "`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPreview(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.titles, "titles", "t", "", `file with one title per line, "-" for stdin`)
	cmd.Flags().IntVar(&opts.shift, "shift", 0, "move every episode number by this amount")
	cmd.Flags().StringVar(&opts.search, "search", "", "text to replace in every file name")
	cmd.Flags().StringVar(&opts.replace, "replace", "", "replacement for --search")
	cmd.MarkFlagsMutuallyExclusive("titles", "shift", "search")
	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, opts *previewOptions, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	source := surface.NewDirSource(a.fs, dir, nil)
	renamer := surface.NewRenamer(surface.WithSource(source))

	if cmd.Flags().Changed("replace") && !cmd.Flags().Changed("search") {
		return fmt.Errorf("--replace requires --search")
	}

	var (
		current, proposed []string
		detail            string
		err               error
	)
	switch {
	case opts.shift != 0:
		current, err = source.Files()
		if err == nil {
			proposed, err = media.ShiftEpisodes(current, opts.shift)
		}
		detail = fmt.Sprintf("shift %+d", opts.shift)

	case cmd.Flags().Changed("search"):
		current, err = source.Files()
		if err == nil {
			proposed, err = media.SearchReplace(current, opts.search, opts.replace)
		}
		detail = fmt.Sprintf("replace %q with %q", opts.search, opts.replace)

	case opts.titles != "":
		var text string
		text, err = a.readTitles(cmd.InOrStdin(), opts.titles)
		if err != nil {
			return err
		}
		renamer.SetText(text)
		current, proposed, err = renamer.PreviewSource()
		detail = fmt.Sprintf("%d titles", len(renamer.Titles()))

	default:
		if err = renamer.Reload(); err == nil {
			current, proposed, err = renamer.PreviewSource()
		}
		detail = "current titles"
	}

	log.Record(log.OpPreview, "", dir, detail, err)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No video files found.")
		return nil
	}

	changed := 0
	out := cmd.OutOrStdout()
	for i, name := range current {
		if proposed[i] == name {
			fmt.Fprintf(out, "  %s\n", name)
			continue
		}
		changed++
		fmt.Fprintf(out, "  %s\n→ %s\n", name, proposed[i])
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d files would change\n", changed, len(current))
	return nil
}

func (a *app) readTitles(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read titles from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(a.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("titles file %s does not exist", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read titles file: %w", err)
	}
	return string(data), nil
}
