package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tagsift/internal/app"
	"tagsift/internal/apperr"
	"tagsift/internal/checkpoint"
	"tagsift/internal/config"
	"tagsift/internal/domain"
	"tagsift/internal/infra/exif"
	"tagsift/internal/infra/exiftool"
	"tagsift/internal/infra/fs"
	"tagsift/internal/logging"
	"tagsift/internal/presentation"
	"tagsift/internal/runlock"
	"tagsift/internal/scan"
	"tagsift/internal/tui"
)

type runOptions struct {
	directory    string
	current      bool
	destination  string
	dryRun       bool
	overwrite    bool
	rename       bool
	verify       bool
	workers      int
	noCheckpoint bool
	noTUI        bool
	verbose      bool
}

func (o *runOptions) apply(cfg *config.Config) {
	if o.overwrite {
		cfg.Copy.Overwrite = true
	}
	if o.rename {
		cfg.Copy.Rename = true
	}
	if o.verify {
		cfg.Copy.Verify = true
	}
	if o.workers > 0 {
		cfg.Scan.Workers = o.workers
	}
	if o.noCheckpoint {
		cfg.Scan.Checkpoints = false
	}
}

func runTriage(cmd *cobra.Command, configPath string, opts *runOptions) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "config", configPath, err)
	}
	opts.apply(cfg)

	scanRoot, err := cfg.ScanRoot(opts.directory, opts.current)
	if err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "scan root", "", err)
	}
	destDir, err := cfg.RunDestination(opts.directory, opts.destination)
	if err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "destination", "", err)
	}

	useTUI := !opts.noTUI && isatty.IsTerminal(os.Stdout.Fd())

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	logOut := io.Writer(cmd.ErrOrStderr())
	if useTUI {
		// The log stream would tear the TUI apart; a configured log
		// file still receives everything.
		logOut = io.Discard
	}
	logger, closeLogs, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Out:    logOut,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "logging", "", err)
	}
	defer closeLogs()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	filesystem := fs.OSFS{Verify: cfg.Copy.Verify}
	if _, err := filesystem.Stat(scanRoot); err != nil {
		return apperr.Wrap(apperr.NotFound, "stat", scanRoot, err)
	}

	if !opts.dryRun {
		if err := filesystem.MkdirAll(destDir, 0o755); err != nil {
			return apperr.Wrap(apperr.IOFailure, "mkdir", destDir, err)
		}
		lock := runlock.New(destDir)
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer lock.Release()
	}

	// Without exiftool every read would fail and the run would end as a
	// wall of warnings. Refuse up front instead.
	if _, err := exec.LookPath(cfg.Exiftool.Binary); err != nil {
		return apperr.Wrap(apperr.MetadataFailure, "exiftool preflight", "", err)
	}
	reader := exiftool.NewCLI(
		exiftool.WithBinary(cfg.Exiftool.Binary),
		exiftool.WithTimeout(time.Duration(cfg.Exiftool.TimeoutSeconds)*time.Second),
	)

	var marks *checkpoint.Manager
	if cfg.Scan.Checkpoints {
		marks = checkpoint.NewManager(scanRoot, checkpoint.MarkerName)
	}

	planner := app.Planner{
		FS:          filesystem,
		Reader:      reader,
		Exif:        exif.Reader{},
		Filter:      scan.NewFilter(cfg.Scan.Extensions, cfg.Scan.Excludes, cfg.Scan.SniffContent),
		Log:         logger,
		Workers:     cfg.Scan.Workers,
		ReadsPerSec: cfg.Scan.ReadsPerSec,
		Overwrite:   cfg.Copy.Overwrite,
		Rename:      cfg.Copy.Rename,
	}
	if marks != nil {
		planner.Marks = marks
	}

	logger.Info().
		Str("root", scanRoot).
		Str("destination", destDir).
		Bool("dry_run", opts.dryRun).
		Bool("rename", cfg.Copy.Rename).
		Msg("starting run")

	if useTUI {
		return runWithTUI(ctx, cmd, cfg, opts, planner, filesystem, marks, scanRoot, destDir, logger)
	}
	return runPlain(ctx, cmd, cfg, opts, planner, filesystem, marks, scanRoot, destDir, logger)
}

func runPlain(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	opts *runOptions,
	planner app.Planner,
	filesystem fs.OSFS,
	marks *checkpoint.Manager,
	scanRoot, destDir string,
	logger zerolog.Logger,
) error {
	planner.OnProgress = barProgress("reading tags")

	plan, err := planner.Plan(ctx, scanRoot, destDir)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperr.Wrap(apperr.Internal, "plan", scanRoot, err)
	}

	printer := presentation.Printer{Writer: cmd.OutOrStdout(), Verbose: opts.verbose}
	if opts.dryRun {
		printer.PrintDryRun(plan)
		return nil
	}

	overwrite := cfg.Copy.Overwrite
	if plan.Stats.Overwrites > 0 && isatty.IsTerminal(os.Stdin.Fd()) {
		confirmed, err := confirmOverwrites(cmd, plan.Stats.Overwrites)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "prompt", "", err)
		}
		overwrite = confirmed
	}

	printer.PrintExecution(plan)

	executor := app.Executor{
		FS:         filesystem,
		Log:        logger,
		OnProgress: barProgress("copying"),
		Overwrite:  overwrite,
	}
	if marks != nil {
		executor.Marks = marks
	}

	report, err := executor.Execute(ctx, plan)
	if err != nil {
		return err
	}
	printer.PrintReport(report)

	if len(report.Failures) > 0 {
		return fmt.Errorf("completed with %d failed copies", len(report.Failures))
	}
	sweepMarkers(marks, logger)
	return nil
}

func runWithTUI(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	opts *runOptions,
	planner app.Planner,
	filesystem fs.OSFS,
	marks *checkpoint.Manager,
	scanRoot, destDir string,
	logger zerolog.Logger,
) error {
	var prog *tea.Program

	execute := func(plan domain.TriagePlan, overwrite bool) tea.Cmd {
		return func() tea.Msg {
			executor := app.Executor{
				FS:  filesystem,
				Log: logger,
				OnProgress: func(current, total int) {
					prog.Send(tui.CopyProgressMsg{Current: current, Total: total})
				},
				Overwrite: overwrite,
			}
			if marks != nil {
				executor.Marks = marks
			}
			report, err := executor.Execute(ctx, plan)
			if err != nil {
				return tui.ErrorMsg{Err: err}
			}
			return tui.CopyDoneMsg{Report: report}
		}
	}

	model := tui.NewModel(tui.Config{
		Root:        scanRoot,
		Destination: destDir,
		DryRun:      opts.dryRun,
		Overwrite:   cfg.Copy.Overwrite,
		Verbose:     opts.verbose,
		Execute:     execute,
	})
	prog = tea.NewProgram(model)

	planner.OnProgress = func(current, total int) {
		prog.Send(tui.ScanProgressMsg{Current: current, Total: total})
	}
	go func() {
		plan, err := planner.Plan(ctx, scanRoot, destDir)
		if err != nil {
			prog.Send(tui.ErrorMsg{Err: err})
			return
		}
		prog.Send(tui.PlanReadyMsg{Plan: plan})
	}()

	final, err := prog.Run()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "tui", "", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	if m.Err != nil {
		if errors.Is(m.Err, context.Canceled) {
			return m.Err
		}
		return apperr.Wrap(apperr.Internal, "run", scanRoot, m.Err)
	}
	if m.Quitting || m.Phase != tui.PhaseDone || opts.dryRun {
		return nil
	}
	if len(m.Report.Failures) > 0 {
		return fmt.Errorf("completed with %d failed copies", len(m.Report.Failures))
	}
	sweepMarkers(marks, logger)
	return nil
}

// barProgress returns a progress callback backed by a terminal progress
// bar, or nil when stderr is not a terminal.
func barProgress(description string) app.ProgressFunc {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	bar := progressbar.NewOptions(0,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(current, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		_ = bar.Set(current)
	}
}

func confirmOverwrites(cmd *cobra.Command, count int) (bool, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintf(cmd.OutOrStdout(), "Overwrite %d existing files? [y/N]: ", count)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// sweepMarkers clears resume markers after a fully successful run; they
// only need to survive interruptions and failures.
func sweepMarkers(marks *checkpoint.Manager, logger zerolog.Logger) {
	if marks == nil {
		return
	}
	removed, err := marks.Sweep()
	if err != nil {
		logger.Warn().Err(err).Msg("cannot clear resume markers")
		return
	}
	if removed > 0 {
		logger.Debug().Int("markers", removed).Msg("cleared resume markers")
	}
}
