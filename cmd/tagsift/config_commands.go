package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"tagsift/internal/apperr"
	"tagsift/internal/config"
)

func newConfigCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the tagsift configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(configPath))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		path      string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				def, err := config.DefaultConfigPath()
				if err != nil {
					return apperr.Wrap(apperr.Internal, "config init", "", err)
				}
				target = def
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return apperr.Wrap(apperr.InvalidConfig, "config init", target, err)
			}
			if _, err := os.Stat(expanded); err == nil && !overwrite {
				return fmt.Errorf("%s already exists, pass --overwrite to replace it", expanded)
			}
			if err := config.CreateSample(expanded); err != nil {
				return apperr.Wrap(apperr.IOFailure, "config init", expanded, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", expanded)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit the [paths] section before the first run.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "where to write the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing config file")

	return cmd
}

func newConfigShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(*configPath)
			if err != nil {
				return apperr.Wrap(apperr.InvalidConfig, "config", *configPath, err)
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "# config: %s\n", path)
			} else {
				fmt.Fprintf(out, "# config: built-in defaults (no file at %s)\n", path)
			}
			rendered, err := toml.Marshal(cfg)
			if err != nil {
				return apperr.Wrap(apperr.Internal, "config show", path, err)
			}
			fmt.Fprint(out, string(rendered))
			return nil
		},
	}
}
