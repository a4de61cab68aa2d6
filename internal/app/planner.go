package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"tagsift/internal/domain"
	"tagsift/internal/scan"
)

// ProgressFunc is called as files are processed to report progress.
type ProgressFunc func(current, total int)

type Planner struct {
	FS          ScanFS
	Reader      MetadataReader
	Exif        ExifReader  // optional; rename mode capture time fallback
	Marks       Checkpoints // optional; nil disables resume markers
	Filter      *scan.Filter
	Log         zerolog.Logger
	OnProgress  ProgressFunc
	Workers     int
	ReadsPerSec int
	Overwrite   bool
	Rename      bool
}

type candidate struct {
	path string
	rel  string
	dir  string
}

type readResult struct {
	item    *domain.PlanItem
	warning string
	failed  bool
	missing bool
	skipped bool
}

// Plan walks the scan root, reads tags for every media candidate and
// returns the copies a run would carry out. Reader failures downgrade
// the affected file to a warning; only walk errors on the root itself
// and context cancellation abort planning.
func (p *Planner) Plan(ctx context.Context, scanRoot, destDir string) (domain.TriagePlan, error) {
	if p.FS == nil || p.Reader == nil {
		return domain.TriagePlan{}, errors.New("planner requires FS and Reader")
	}
	if p.Filter == nil {
		return domain.TriagePlan{}, errors.New("planner requires a Filter")
	}

	plan := domain.TriagePlan{Root: scanRoot, Destination: destDir}

	candidates, visited, err := p.collect(ctx, scanRoot, destDir, &plan)
	if err != nil {
		return domain.TriagePlan{}, err
	}
	p.Log.Debug().Int("candidates", len(candidates)).Msg("scan complete")

	results, err := p.readAll(ctx, destDir, candidates)
	if err != nil {
		return domain.TriagePlan{}, err
	}

	// A directory stays pending while it has unreadable files or files
	// still to copy; everything else can be checkpointed right away.
	dirPending := make(map[string]bool)
	for i, res := range results {
		if res.warning != "" {
			plan.Warnings = append(plan.Warnings, res.warning)
		}
		switch {
		case res.failed:
			plan.Stats.Unreadable++
			dirPending[candidates[i].dir] = true
		case res.missing:
			plan.Stats.MissingTags++
		case res.skipped:
			plan.Stats.SkippedExisting++
		case res.item != nil:
			plan.Items = append(plan.Items, *res.item)
			dirPending[candidates[i].dir] = true
		}
	}

	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].Media.RelPath < plan.Items[j].Media.RelPath
	})

	plan.Stats.Qualified = len(plan.Items)
	for _, item := range plan.Items {
		for _, c := range item.Copies {
			if c.Source.Sidecar {
				plan.Stats.Sidecars++
			}
			if c.Exists && p.Overwrite {
				plan.Stats.Overwrites++
			}
		}
	}

	for _, dir := range visited {
		if !dirPending[dir] {
			plan.CompletedDirs = append(plan.CompletedDirs, dir)
		}
	}

	p.Log.Info().
		Int("scanned", plan.Stats.Scanned).
		Int("qualified", plan.Stats.Qualified).
		Int("missing_tags", plan.Stats.MissingTags).
		Int("unreadable", plan.Stats.Unreadable).
		Int("skipped_existing", plan.Stats.SkippedExisting).
		Msg("plan ready")

	return plan, nil
}

// collect walks the tree and gathers media candidates. Directories with
// a resume marker keep their direct files out of the scan but are still
// descended into; excluded subtrees are pruned whole.
func (p *Planner) collect(ctx context.Context, scanRoot, destDir string, plan *domain.TriagePlan) ([]candidate, []string, error) {
	var candidates []candidate
	var visited []string
	completed := make(map[string]bool)

	err := p.FS.WalkDir(scanRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == scanRoot {
				return walkErr
			}
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("cannot read %s: %v", path, walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(scanRoot, path)
		if relErr != nil {
			rel = d.Name()
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if p.Filter.ExcludedDir(rel) {
				plan.Stats.ExcludedDirs++
				p.Log.Debug().Str("dir", rel).Msg("excluded subtree")
				return fs.SkipDir
			}
			if p.Marks != nil && p.Marks.Completed(rel) {
				completed[rel] = true
				plan.Stats.CheckpointedDirs++
				p.Log.Debug().Str("dir", rel).Msg("directory already processed")
				return nil
			}
			visited = append(visited, rel)
			return nil
		}

		dir := filepath.Dir(rel)
		if completed[dir] {
			return nil
		}
		if p.Filter.Excluded(rel) {
			return nil
		}
		if !p.Filter.MediaExt(d.Name()) {
			if !p.Filter.Sniff() {
				return nil
			}
			header, err := p.FS.ReadHeader(path, scan.HeaderLen)
			if err != nil || !p.Filter.MediaContent(header) {
				return nil
			}
		}

		plan.Stats.Scanned++

		// Mirror copies land at a fixed path, so an existing target can
		// be skipped before paying for a metadata read. Rename targets
		// depend on the tags and are checked after the read.
		if !p.Overwrite && !p.Rename {
			if exists, err := p.FS.Exists(filepath.Join(destDir, rel)); err == nil && exists {
				plan.Stats.SkippedExisting++
				return nil
			}
		}

		candidates = append(candidates, candidate{path: path, rel: rel, dir: dir})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return candidates, visited, nil
}

func (p *Planner) readAll(ctx context.Context, destDir string, candidates []candidate) ([]readResult, error) {
	results := make([]readResult, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	p.Log.Debug().Int("workers", workers).Msg("reading metadata")

	var limiter *rate.Limiter
	if p.ReadsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.ReadsPerSec), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	processed := 0
	total := len(candidates)

	for i, cand := range candidates {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}

			res, err := p.readOne(gctx, destDir, cand)
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = res
			processed++
			if p.OnProgress != nil {
				p.OnProgress(processed, total)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Planner) readOne(ctx context.Context, destDir string, cand candidate) (readResult, error) {
	paths := []string{cand.path}
	sidecarPath := ""
	for _, sc := range scan.SidecarCandidates(cand.path) {
		if ok, _ := p.FS.Exists(sc); ok {
			sidecarPath = sc
			paths = append(paths, sc)
			break
		}
	}

	sets, err := p.Reader.ReadTags(ctx, paths...)
	if err != nil {
		// Abort only when the run itself was cancelled. A read that hit
		// its own deadline is just one more unreadable file.
		if ctx.Err() != nil {
			return readResult{}, ctx.Err()
		}
		p.Log.Warn().Str("file", cand.rel).Err(err).Msg("metadata read failed")
		return readResult{
			failed:  true,
			warning: fmt.Sprintf("metadata read failed for %s: %v", filepath.Base(cand.path), err),
		}, nil
	}
	if len(sets) != len(paths) {
		return readResult{
			failed:  true,
			warning: fmt.Sprintf("metadata read for %s returned %d sets for %d paths", filepath.Base(cand.path), len(sets), len(paths)),
		}, nil
	}

	rec := domain.NewMediaRecord(cand.path, cand.rel, sets[0])
	var sidecar *domain.SidecarRecord
	if sidecarPath != "" {
		sc := domain.NewSidecarRecord(sidecarPath, filepath.Join(cand.dir, filepath.Base(sidecarPath)), sets[1])
		sidecar = &sc
	}

	task, ok := domain.Evaluate(rec, sidecar)
	if !ok {
		p.Log.Debug().
			Str("file", cand.rel).
			Bool("label", rec.Label.Filled()).
			Bool("headline", rec.Headline.Filled()).
			Msg("missing required tags")
		return readResult{missing: true}, nil
	}

	return p.resolve(ctx, destDir, rec, sidecar, task), nil
}

// resolve turns a qualifying task into planned copies with concrete
// destination paths.
func (p *Planner) resolve(ctx context.Context, destDir string, rec domain.MediaRecord, sidecar *domain.SidecarRecord, task domain.CopyTask) readResult {
	warning := ""
	names := make([]string, len(task.Sources))
	if p.Rename {
		ts, tsWarning := p.captureTime(ctx, rec, sidecar)
		warning = tsWarning
		newName := domain.RenamedName(ts, rec.Headline.Value, rec.Name)
		stem := strings.TrimSuffix(newName, filepath.Ext(newName))
		for i, src := range task.Sources {
			if src.Sidecar {
				names[i] = stem + filepath.Ext(src.Path)
			} else {
				names[i] = newName
			}
		}
	}

	copies := make([]domain.PlannedCopy, len(task.Sources))
	for i, src := range task.Sources {
		target := filepath.Join(destDir, src.RelPath)
		if p.Rename {
			target = filepath.Join(destDir, names[i])
		}
		exists, err := p.FS.Exists(target)
		if err != nil {
			exists = false
		}
		copies[i] = domain.PlannedCopy{Source: src, Target: target, Exists: exists}
	}

	if !p.Overwrite && copies[0].Exists {
		return readResult{skipped: true, warning: warning}
	}

	item := domain.PlanItem{Media: rec, Task: task, Copies: copies}
	return readResult{item: &item, warning: warning}
}

// captureTime picks the timestamp rename mode embeds in the new name.
// Preference order: the file's own DateTimeOriginal, the sidecar's,
// embedded EXIF, file modification time.
func (p *Planner) captureTime(ctx context.Context, rec domain.MediaRecord, sidecar *domain.SidecarRecord) (string, string) {
	if rec.TakenAt.Filled() {
		return rec.TakenAt.Value, ""
	}
	if sidecar != nil && sidecar.TakenAt.Filled() {
		return sidecar.TakenAt.Value, ""
	}
	if p.Exif != nil {
		if ts, err := p.Exif.CaptureTime(ctx, rec.Path); err == nil {
			return ts, ""
		}
	}
	if info, err := p.FS.Stat(rec.Path); err == nil {
		return info.ModTime().Format("2006:01:02 15:04:05"),
			fmt.Sprintf("no capture time in metadata for %s, using file time", rec.Name)
	}
	return "", fmt.Sprintf("no capture time found for %s", rec.Name)
}
