package app

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tagsift/internal/domain"
	"tagsift/internal/scan"
)

type mockFS struct {
	entries  []mockEntry
	exists   map[string]bool
	headers  map[string][]byte
	failCopy map[string]error
	copies   []string
}

type mockEntry struct {
	path    string
	isDir   bool
	modTime time.Time
}

func (m *mockFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	var pruned []string
	for _, entry := range m.entries {
		skip := false
		for _, prefix := range pruned {
			if strings.HasPrefix(entry.path, prefix+string(filepath.Separator)) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		dirEntry := mockDirEntry{name: filepath.Base(entry.path), isDir: entry.isDir}
		err := fn(entry.path, dirEntry, nil)
		if err == fs.SkipDir {
			if entry.isDir {
				pruned = append(pruned, entry.path)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *mockFS) Stat(path string) (fs.FileInfo, error) {
	for _, entry := range m.entries {
		if entry.path == path {
			return mockFileInfo{name: filepath.Base(path), modTime: entry.modTime}, nil
		}
	}
	return nil, fs.ErrNotExist
}

func (m *mockFS) Exists(path string) (bool, error) {
	return m.exists[path], nil
}

func (m *mockFS) ReadHeader(path string, n int) ([]byte, error) {
	return m.headers[path], nil
}

func (m *mockFS) CopyFile(src, dst string) error {
	if err := m.failCopy[src]; err != nil {
		return err
	}
	m.copies = append(m.copies, src+" -> "+dst)
	return nil
}

type mockReader struct {
	sets  map[string]domain.TagSet
	fail  map[string]error
	calls [][]string
}

func (m *mockReader) ReadTags(ctx context.Context, paths ...string) ([]domain.TagSet, error) {
	m.calls = append(m.calls, append([]string(nil), paths...))
	if err := m.fail[paths[0]]; err != nil {
		return nil, err
	}
	out := make([]domain.TagSet, 0, len(paths))
	for _, p := range paths {
		set := m.sets[p]
		set.Path = p
		out = append(out, set)
	}
	return out, nil
}

type mockExif struct {
	times map[string]string
}

func (m mockExif) CaptureTime(ctx context.Context, path string) (string, error) {
	if ts, ok := m.times[path]; ok {
		return ts, nil
	}
	return "", errors.New("no exif block")
}

type mockMarks struct {
	completed map[string]bool
	marked    []string
}

func (m *mockMarks) Completed(relDir string) bool { return m.completed[relDir] }

func (m *mockMarks) Mark(relDir string) error {
	m.marked = append(m.marked, relDir)
	return nil
}

type mockDirEntry struct {
	name  string
	isDir bool
}

func (m mockDirEntry) Name() string               { return m.name }
func (m mockDirEntry) IsDir() bool                { return m.isDir }
func (m mockDirEntry) Type() fs.FileMode          { return 0 }
func (m mockDirEntry) Info() (fs.FileInfo, error) { return nil, nil }

type mockFileInfo struct {
	name    string
	modTime time.Time
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return 0 }
func (m mockFileInfo) Mode() fs.FileMode  { return 0 }
func (m mockFileInfo) ModTime() time.Time { return m.modTime }
func (m mockFileInfo) IsDir() bool        { return false }
func (m mockFileInfo) Sys() interface{}   { return nil }

func testFilter() *scan.Filter {
	return scan.NewFilter([]string{".nef", ".jpg"}, []string{"received"}, false)
}

func TestPlannerQualifiesAndPlansMirrorCopies(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	primary := filepath.Join(sourceDir, "2024", "IMG_1.NEF")
	sidecar := filepath.Join(sourceDir, "2024", "IMG_1.xmp")
	untagged := filepath.Join(sourceDir, "2024", "IMG_2.NEF")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: filepath.Join(sourceDir, "2024"), isDir: true},
			{path: primary},
			{path: untagged},
			{path: filepath.Join(sourceDir, "notes.txt")},
		},
		exists: map[string]bool{sidecar: true},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			primary: {
				Label:    domain.NewTag("Select"),
				Headline: domain.NewTag("Birthday Party"),
				TakenAt:  domain.NewTag("2007:06:03 14:05:59"),
			},
			sidecar:  {Label: domain.NewTag("Select")},
			untagged: {Label: domain.NewTag("Select")},
		},
	}

	planner := Planner{
		FS:      fsys,
		Reader:  reader,
		Filter:  testFilter(),
		Workers: 1,
	}

	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(plan.Items))
	}
	item := plan.Items[0]
	if len(item.Copies) != 2 {
		t.Fatalf("expected primary plus sidecar, got %d copies", len(item.Copies))
	}
	if item.Copies[0].Target != filepath.Join(targetDir, "2024", "IMG_1.NEF") {
		t.Fatalf("unexpected primary target: %q", item.Copies[0].Target)
	}
	if !item.Copies[1].Source.Sidecar || item.Copies[1].Target != filepath.Join(targetDir, "2024", "IMG_1.xmp") {
		t.Fatalf("unexpected sidecar copy: %+v", item.Copies[1])
	}

	stats := plan.Stats
	if stats.Scanned != 2 || stats.Qualified != 1 || stats.MissingTags != 1 || stats.Sidecars != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(plan.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", plan.Warnings)
	}

	if len(reader.calls) != 2 {
		t.Fatalf("expected 2 metadata reads, got %d", len(reader.calls))
	}
	if len(reader.calls[0]) != 2 || reader.calls[0][1] != sidecar {
		t.Fatalf("expected sidecar in the same read, got %v", reader.calls[0])
	}
	if len(plan.CompletedDirs) != 0 {
		t.Fatalf("directory with copies must stay pending, got %v", plan.CompletedDirs)
	}
}

func TestPlannerSkipsExistingTargetsBeforeReading(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	primary := filepath.Join(sourceDir, "IMG_1.NEF")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: primary},
		},
		exists: map[string]bool{filepath.Join(targetDir, "IMG_1.NEF"): true},
	}
	reader := &mockReader{sets: map[string]domain.TagSet{}}

	planner := Planner{FS: fsys, Reader: reader, Filter: testFilter(), Workers: 1}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Stats.Scanned != 1 || plan.Stats.SkippedExisting != 1 {
		t.Fatalf("unexpected stats: %+v", plan.Stats)
	}
	if len(reader.calls) != 0 {
		t.Fatalf("expected no metadata reads for existing target, got %d", len(reader.calls))
	}
}

func TestPlannerOverwritePlansExistingTargets(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	primary := filepath.Join(sourceDir, "IMG_1.NEF")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: primary},
		},
		exists: map[string]bool{filepath.Join(targetDir, "IMG_1.NEF"): true},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			primary: {Label: domain.NewTag("Select"), Headline: domain.NewTag("Party")},
		},
	}

	planner := Planner{FS: fsys, Reader: reader, Filter: testFilter(), Workers: 1, Overwrite: true}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(plan.Items))
	}
	if !plan.Items[0].Copies[0].Exists {
		t.Fatal("expected existing target to be flagged")
	}
	if plan.Stats.Overwrites != 1 {
		t.Fatalf("expected 1 overwrite, got %d", plan.Stats.Overwrites)
	}
}

func TestPlannerSkipsCheckpointedFilesButDescends(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	deep := filepath.Join(sourceDir, "2024", "06", "IMG_deep.NEF")
	top := filepath.Join(sourceDir, "2024", "IMG_top.NEF")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: filepath.Join(sourceDir, "2024"), isDir: true},
			{path: filepath.Join(sourceDir, "2024", "06"), isDir: true},
			{path: deep},
			{path: top},
		},
		exists: map[string]bool{},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			deep: {Label: domain.NewTag("Select"), Headline: domain.NewTag("Snow")},
		},
	}
	marks := &mockMarks{completed: map[string]bool{"2024": true}}

	planner := Planner{FS: fsys, Reader: reader, Filter: testFilter(), Marks: marks, Workers: 1}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Items) != 1 || plan.Items[0].Media.Path != deep {
		t.Fatalf("expected only the deep file to be planned: %+v", plan.Items)
	}
	if plan.Stats.CheckpointedDirs != 1 {
		t.Fatalf("expected 1 checkpointed dir, got %d", plan.Stats.CheckpointedDirs)
	}
	if plan.Stats.Scanned != 1 {
		t.Fatalf("checkpointed file must not be scanned, got %d", plan.Stats.Scanned)
	}
	if len(reader.calls) != 1 {
		t.Fatalf("expected a single read, got %d", len(reader.calls))
	}
}

func TestPlannerPrunesExcludedSubtrees(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	kept := filepath.Join(sourceDir, "IMG_Y.NEF")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: kept},
			{path: filepath.Join(sourceDir, "received"), isDir: true},
			{path: filepath.Join(sourceDir, "received", "IMG_X.NEF")},
		},
		exists: map[string]bool{},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			kept: {Label: domain.NewTag("Select"), Headline: domain.NewTag("Keep")},
		},
	}

	planner := Planner{FS: fsys, Reader: reader, Filter: testFilter(), Workers: 1}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Stats.ExcludedDirs != 1 {
		t.Fatalf("expected 1 excluded dir, got %d", plan.Stats.ExcludedDirs)
	}
	if plan.Stats.Scanned != 1 || len(plan.Items) != 1 {
		t.Fatalf("expected only the kept file: %+v", plan.Stats)
	}
	for _, call := range reader.calls {
		for _, p := range call {
			if strings.Contains(p, "received") {
				t.Fatalf("excluded file was read: %v", call)
			}
		}
	}
}

func TestPlannerReaderFailureBecomesWarning(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	broken := filepath.Join(sourceDir, "a", "one.nef")
	good := filepath.Join(sourceDir, "b", "two.nef")
	untagged := filepath.Join(sourceDir, "c", "three.nef")

	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: filepath.Join(sourceDir, "a"), isDir: true},
			{path: broken},
			{path: filepath.Join(sourceDir, "b"), isDir: true},
			{path: good},
			{path: filepath.Join(sourceDir, "c"), isDir: true},
			{path: untagged},
		},
		exists: map[string]bool{},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			good:     {Label: domain.NewTag("Select"), Headline: domain.NewTag("Party")},
			untagged: {},
		},
		fail: map[string]error{broken: errors.New("not a media file")},
	}

	planner := Planner{FS: fsys, Reader: reader, Filter: testFilter(), Workers: 1}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("reader failure must not abort planning: %v", err)
	}

	stats := plan.Stats
	if stats.Unreadable != 1 || stats.Qualified != 1 || stats.MissingTags != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "one.nef") {
		t.Fatalf("unexpected warnings: %v", plan.Warnings)
	}
	if len(plan.CompletedDirs) != 1 || plan.CompletedDirs[0] != "c" {
		t.Fatalf("only the tagless dir is complete, got %v", plan.CompletedDirs)
	}
}

func TestPlannerRenameModeFlattensTargets(t *testing.T) {
	sourceDir := "/source"
	targetDir := "/target"
	first := filepath.Join(sourceDir, "2024", "IMG_1.NEF")
	firstSidecar := filepath.Join(sourceDir, "2024", "IMG_1.xmp")
	second := filepath.Join(sourceDir, "2024", "IMG_2.NEF")
	third := filepath.Join(sourceDir, "2024", "IMG_3.NEF")

	mtime := time.Date(2019, 5, 4, 3, 2, 1, 0, time.Local)
	fsys := &mockFS{
		entries: []mockEntry{
			{path: sourceDir, isDir: true},
			{path: filepath.Join(sourceDir, "2024"), isDir: true},
			{path: first},
			{path: second},
			{path: third, modTime: mtime},
		},
		exists: map[string]bool{firstSidecar: true},
	}
	reader := &mockReader{
		sets: map[string]domain.TagSet{
			first: {
				Label:    domain.NewTag("Select"),
				Headline: domain.NewTag("Trip: Paris"),
				TakenAt:  domain.NewTag("2007:06:03 14:05:59"),
			},
			firstSidecar: {},
			second: {
				Label:    domain.NewTag("Select"),
				Headline: domain.NewTag("Snow"),
			},
			third: {
				Label:    domain.NewTag("Select"),
				Headline: domain.NewTag("Sled"),
			},
		},
	}
	exif := mockExif{times: map[string]string{second: "2020:01:02 03:04:05"}}

	planner := Planner{
		FS:      fsys,
		Reader:  reader,
		Exif:    exif,
		Filter:  testFilter(),
		Workers: 1,
		Rename:  true,
	}
	plan, err := planner.Plan(context.Background(), sourceDir, targetDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(plan.Items))
	}

	targets := map[string]string{}
	for _, item := range plan.Items {
		for _, c := range item.Copies {
			targets[c.Source.Path] = c.Target
		}
	}

	if got := targets[first]; got != filepath.Join(targetDir, "20070603140559_Trip_Paris_IMG_1.NEF") {
		t.Fatalf("unexpected renamed target: %q", got)
	}
	if got := targets[firstSidecar]; got != filepath.Join(targetDir, "20070603140559_Trip_Paris_IMG_1.xmp") {
		t.Fatalf("sidecar must share the renamed stem: %q", got)
	}
	if got := targets[second]; got != filepath.Join(targetDir, "20200102030405_Snow_IMG_2.NEF") {
		t.Fatalf("expected embedded exif fallback: %q", got)
	}
	if got := targets[third]; got != filepath.Join(targetDir, "20190504030201_Sled_IMG_3.NEF") {
		t.Fatalf("expected file time fallback: %q", got)
	}

	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "IMG_3.NEF") {
		t.Fatalf("expected a file time warning, got %v", plan.Warnings)
	}
}

func TestPlannerRequiresPorts(t *testing.T) {
	planner := Planner{}
	if _, err := planner.Plan(context.Background(), "/source", "/target"); err == nil {
		t.Fatal("expected error without FS and Reader")
	}
}
