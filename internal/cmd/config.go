package cmd

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and manage configuration",
		Long: `Show and manage the configuration stored in ~/.title-fetch/config.json.

Every key can be overridden with a TITLE_FETCH_ environment variable, for
example TITLE_FETCH_DEFAULT_PROVIDER=jikan. The TVDB API key is best kept in
the system keyring with "config set-tvdb-key".`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				shown := *a.cfg
				shown.TVDBAPIKey = maskKey(shown.TVDBAPIKey)
				return writeJSON(cmd.OutOrStdout(), shown)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.configPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.configPath()
				if err != nil {
					return err
				}
				exists, err := afero.Exists(a.fs, path)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("config already exists at %s", path)
				}
				if err := config.DefaultConfig().SaveTo(a.fs, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-tvdb-key KEY",
			Short: "Store the TVDB API key in the system keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.SetTVDBKey(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "TVDB API key stored in keyring")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete-tvdb-key",
			Short: "Remove the TVDB API key from the system keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.DeleteTVDBKey(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "TVDB API key removed from keyring")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) configPath() (string, error) {
	if a.configFile != "" {
		return a.configFile, nil
	}
	return config.ConfigPath()
}

// maskKey keeps the last four characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
