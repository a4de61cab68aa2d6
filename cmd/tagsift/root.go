package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "tagsift",
		Short: "Copy tagged photos out of an archive",
		Long: `Tagsift walks a photo archive, reads IPTC tags through exiftool and
copies every file carrying both a Label and a Headline to a destination
directory, XMP sidecars included.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd, configFlag, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.directory, "directory", "d", "", "Scan a subdirectory of the configured root")
	flags.BoolVar(&opts.current, "current", false, "Scan the current working directory instead of the configured root")
	flags.StringVarP(&opts.destination, "destination", "t", "", "Destination directory override")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Print the plan without copying anything")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "Overwrite files that already exist at the destination")
	flags.BoolVar(&opts.rename, "rename", false, "Flatten copies into <capture time>_<headline>_<name>")
	flags.BoolVar(&opts.verify, "verify", false, "Verify every copy with a checksum")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel metadata readers (default: number of CPUs)")
	flags.BoolVar(&opts.noCheckpoint, "no-checkpoint", false, "Ignore and do not write resume markers")
	flags.BoolVar(&opts.noTUI, "no-tui", false, "Plain output even on a terminal")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.MarkFlagsMutuallyExclusive("directory", "current")

	rootCmd.AddCommand(newCleanCommand(&configFlag))
	rootCmd.AddCommand(newDoctorCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
