package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"tagsift/internal/apperr"
	"tagsift/internal/config"
	"tagsift/internal/infra/exiftool"
)

func newDoctorCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, exiftool, and configured paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, path, exists, err := config.Load(*configPath)
			if err != nil {
				return apperr.Wrap(apperr.InvalidConfig, "config", *configPath, err)
			}
			if exists {
				fmt.Fprintf(out, "✓ config %s\n", path)
			} else {
				fmt.Fprintf(out, "○ config not found, using defaults (looked at %s)\n", path)
			}

			healthy := checkExiftool(cmd, cfg)
			if !checkDirectory(out, "archive root", cfg.Paths.Root, true) {
				healthy = false
			}
			if !checkDirectory(out, "destination", cfg.Paths.Destination, false) {
				healthy = false
			}

			if !healthy {
				return fmt.Errorf("environment is not ready")
			}
			fmt.Fprintln(out, "Everything looks good.")
			return nil
		},
	}
}

func checkExiftool(cmd *cobra.Command, cfg *config.Config) bool {
	out := cmd.OutOrStdout()
	binPath, err := exec.LookPath(cfg.Exiftool.Binary)
	if err != nil {
		fmt.Fprintf(out, "✗ exiftool %q not found in PATH\n", cfg.Exiftool.Binary)
		return false
	}
	version, err := exiftool.NewCLI(exiftool.WithBinary(cfg.Exiftool.Binary)).Version(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "✗ exiftool at %s is not runnable: %v\n", binPath, err)
		return false
	}
	fmt.Fprintf(out, "✓ exiftool %s (%s)\n", version, binPath)
	return true
}

// checkDirectory reports on a configured path. Unconfigured paths are
// informational since flags can supply them per run; a missing
// destination is created on the first run.
func checkDirectory(out io.Writer, name, dir string, mustExist bool) bool {
	if dir == "" {
		fmt.Fprintf(out, "○ %s not configured (supply it via config or flags)\n", name)
		return true
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Fprintf(out, "✓ %s %s\n", name, dir)
		return true
	case err == nil:
		fmt.Fprintf(out, "✗ %s %s is not a directory\n", name, dir)
		return false
	case mustExist:
		fmt.Fprintf(out, "✗ %s %s does not exist\n", name, dir)
		return false
	default:
		fmt.Fprintf(out, "○ %s %s will be created on the first run\n", name, dir)
		return true
	}
}
