package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tagsift/internal/apperr"
	"tagsift/internal/checkpoint"
	"tagsift/internal/config"
)

func newCleanCommand(configPath *string) *cobra.Command {
	var (
		directory string
		current   bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove resume markers left by earlier runs",
		Long: "Remove the per-directory resume markers that record which directories\n" +
			"were already processed. The next run re-examines everything.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configPath)
			if err != nil {
				return apperr.Wrap(apperr.InvalidConfig, "config", *configPath, err)
			}
			scanRoot, err := cfg.ScanRoot(directory, current)
			if err != nil {
				return apperr.Wrap(apperr.InvalidConfig, "scan root", "", err)
			}
			removed, err := checkpoint.NewManager(scanRoot, checkpoint.MarkerName).Sweep()
			if err != nil {
				return apperr.Wrap(apperr.IOFailure, "clean", scanRoot, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d resume markers under %s\n", removed, scanRoot)
			return nil
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", "", "archive subdirectory to clean")
	cmd.Flags().BoolVar(&current, "current", false, "clean below the current working directory")
	cmd.MarkFlagsMutuallyExclusive("directory", "current")

	return cmd
}
