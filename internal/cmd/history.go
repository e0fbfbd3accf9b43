package cmd

import (
	"fmt"

	"github.com/Digital-Shane/title-fetch/internal/log"
	"github.com/Digital-Shane/title-fetch/internal/tui/history"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	limit       int
	interactive bool
}

func (a *app) historyCommand() *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		Long: `List recent sessions with their fetches, hand-offs and previews.

Sessions are stored under ~/.title-fetch/history while enable_history is on
and removed after history_retention_days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 20, "number of sessions to show, 0 for all")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse sessions in a TUI")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	summaries, err := log.Summaries(opts.limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
		return nil
	}

	if opts.interactive {
		model := history.NewHistoryModel(history.NewTree(summaries))
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range summaries {
		meta := s.Session.Metadata
		fmt.Fprintf(out, "%s  %-8s %-16s %d ops", meta.SessionID, s.Command, s.RelativeTime, meta.TotalOps)
		if meta.FailedOps > 0 {
			fmt.Fprintf(out, " (%d failed)", meta.FailedOps)
		}
		fmt.Fprintln(out)
		for _, op := range s.Session.Operations {
			status := "ok"
			if !op.Success {
				status = "failed: " + op.Error
			}
			fmt.Fprintf(out, "    %-8s %-7s %s %s [%s]\n", op.Type, op.Provider, op.Subject, op.Detail, status)
		}
	}
	return nil
}
