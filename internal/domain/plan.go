package domain

// PlannedCopy resolves one CopyTask source to its destination path.
type PlannedCopy struct {
	Source CopySource
	Target string
	Exists bool
}

// PlanItem is one qualifying media file together with its resolved copies.
// Copies is parallel to Task.Sources.
type PlanItem struct {
	Media  MediaRecord
	Task   CopyTask
	Copies []PlannedCopy
}

type ScanStats struct {
	Scanned          int
	Qualified        int
	MissingTags      int
	Unreadable       int
	SkippedExisting  int
	CheckpointedDirs int
	ExcludedDirs     int
	Sidecars         int
	Overwrites       int
}

type TriagePlan struct {
	Root        string
	Destination string
	Items       []PlanItem
	// CompletedDirs lists relative directories with nothing left to copy;
	// they can be checkpointed as soon as the plan exists.
	CompletedDirs []string
	Stats         ScanStats
	Warnings      []string
}

// CopyFailure records a per-file copy error. Failures never abort a run; they
// are collected and reported at the end.
type CopyFailure struct {
	Path   string
	Target string
	Err    error
}

type ExecReport struct {
	Copied     int
	Sidecars   int
	Skipped    int
	Failures   []CopyFailure
	MarkedDirs int
}
