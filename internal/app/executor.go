package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"

	"tagsift/internal/domain"
)

type Executor struct {
	FS         CopyFS
	Marks      Checkpoints // optional; nil disables resume markers
	Log        zerolog.Logger
	OnProgress ProgressFunc
	Overwrite  bool
}

// Execute carries out the planned copies. Individual copy failures are
// collected in the report and never abort the run; only context
// cancellation stops it early. Directories are marked for resume as
// soon as their last planned copy is done, so an interrupted run keeps
// the progress it made.
func (e *Executor) Execute(ctx context.Context, plan domain.TriagePlan) (domain.ExecReport, error) {
	var report domain.ExecReport
	if e.FS == nil {
		return report, errors.New("executor requires FS")
	}

	total := 0
	dirLeft := make(map[string]int)
	for _, item := range plan.Items {
		total += len(item.Copies)
		dirLeft[filepath.Dir(item.Media.RelPath)]++
	}

	// Directories the plan found nothing to do in are complete already.
	if e.Marks != nil {
		for _, dir := range plan.CompletedDirs {
			if e.markDir(dir) {
				report.MarkedDirs++
			}
		}
	}

	current := 0
	dirFailed := make(map[string]bool)

	for _, item := range plan.Items {
		dir := filepath.Dir(item.Media.RelPath)

		for _, c := range item.Copies {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			current++

			if c.Exists && !e.Overwrite {
				report.Skipped++
				e.Log.Debug().Str("target", c.Target).Msg("target exists, skipped")
				if e.OnProgress != nil {
					e.OnProgress(current, total)
				}
				continue
			}

			if err := e.FS.CopyFile(c.Source.Path, c.Target); err != nil {
				report.Failures = append(report.Failures, domain.CopyFailure{
					Path:   c.Source.Path,
					Target: c.Target,
					Err:    err,
				})
				dirFailed[dir] = true
				e.Log.Error().Str("file", c.Source.RelPath).Str("target", c.Target).Err(err).Msg("copy failed")
			} else {
				report.Copied++
				if c.Source.Sidecar {
					report.Sidecars++
				}
				e.Log.Debug().Str("file", c.Source.RelPath).Str("target", c.Target).Msg("copied")
			}

			if e.OnProgress != nil {
				e.OnProgress(current, total)
			}
		}

		dirLeft[dir]--
		if dirLeft[dir] == 0 && e.Marks != nil && !dirFailed[dir] {
			if e.markDir(dir) {
				report.MarkedDirs++
			}
		}
	}

	return report, nil
}

func (e *Executor) markDir(dir string) bool {
	if dir == "." || dir == "" {
		return false
	}
	if err := e.Marks.Mark(dir); err != nil {
		e.Log.Warn().Str("dir", dir).Err(err).Msg("cannot write resume marker")
		return false
	}
	return true
}
