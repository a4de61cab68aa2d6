package presentation

import (
	"fmt"
	"io"
	"path/filepath"

	"tagsift/internal/domain"
)

// copyLineLimit caps the per-file listing before it collapses into a
// "... and N more" line.
const copyLineLimit = 4

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// PrintDryRun describes the plan without touching anything.
func (p Printer) PrintDryRun(plan domain.TriagePlan) {
	p.printPlan(plan, true)
}

// PrintExecution announces the copies about to run.
func (p Printer) PrintExecution(plan domain.TriagePlan) {
	p.printPlan(plan, false)
	fmt.Fprintln(p.Writer)
}

func (p Printer) printPlan(plan domain.TriagePlan, dryRun bool) {
	header := "Copying:"
	if dryRun {
		header = "Would copy:"
	}
	fmt.Fprintln(p.Writer, header)
	fmt.Fprintln(p.Writer)

	for _, line := range formatCopyLines(plan.Items) {
		fmt.Fprintln(p.Writer, line)
	}

	fmt.Fprintln(p.Writer)
	p.printPlanSummary(plan, dryRun)
	p.printWarnings(plan.Warnings)
}

// PrintReport summarizes a finished run, failures included.
func (p Printer) PrintReport(report domain.ExecReport) {
	fmt.Fprintf(p.Writer, "Copied %d files, %d of them sidecars.\n", report.Copied, report.Sidecars)
	if report.Skipped > 0 {
		fmt.Fprintf(p.Writer, "Skipped %d files already in the destination.\n", report.Skipped)
	}
	if report.MarkedDirs > 0 {
		fmt.Fprintf(p.Writer, "Marked %d directories as processed.\n", report.MarkedDirs)
	}
	if len(report.Failures) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintf(p.Writer, "Failed to copy %d files:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(p.Writer, "- %s: %v\n", f.Path, f.Err)
		}
	}
}

func (p Printer) printPlanSummary(plan domain.TriagePlan, dryRun bool) {
	stats := plan.Stats

	verb := "Copying"
	if dryRun {
		verb = "Would copy"
	}
	fmt.Fprintf(p.Writer, "%s %d of %d scanned files, plus %d sidecars.\n", verb, stats.Qualified, stats.Scanned, stats.Sidecars)
	fmt.Fprintf(p.Writer, "Skipped %d files without Label and Headline.\n", stats.MissingTags)

	if stats.Unreadable > 0 {
		fmt.Fprintf(p.Writer, "Could not read metadata for %d files.\n", stats.Unreadable)
	}
	if stats.SkippedExisting > 0 {
		fmt.Fprintf(p.Writer, "Skipped %d files already in the destination.\n", stats.SkippedExisting)
	}
	if stats.CheckpointedDirs > 0 {
		fmt.Fprintf(p.Writer, "Skipped %d directories already processed.\n", stats.CheckpointedDirs)
	}
	if stats.Overwrites > 0 {
		if dryRun {
			fmt.Fprintf(p.Writer, "Would overwrite %d existing files.\n", stats.Overwrites)
		} else {
			fmt.Fprintf(p.Writer, "Overwriting %d existing files.\n", stats.Overwrites)
		}
	}
}

func (p Printer) printWarnings(warnings []string) {
	if !p.Verbose || len(warnings) == 0 {
		return
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Warnings:")
	for _, warning := range warnings {
		fmt.Fprintln(p.Writer, "- "+warning)
	}
}

func formatCopyLines(items []domain.PlanItem) []string {
	shown := min(len(items), copyLineLimit)
	lines := make([]string, 0, shown+1)
	for _, item := range items[:shown] {
		line := "Copy " + item.Media.RelPath
		if base := filepath.Base(item.Copies[0].Target); base != item.Media.Name {
			line += "  as " + base
		}
		if len(item.Copies) > 1 {
			line += "  (+ sidecar)"
		}
		lines = append(lines, line)
	}
	if rest := len(items) - shown; rest > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", rest))
	}
	return lines
}
