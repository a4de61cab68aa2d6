package domain

// CopySource is one path of a CopyTask, located relative to the scanned root.
type CopySource struct {
	Path    string
	RelPath string
	Sidecar bool
}

// CopyTask lists the paths to copy for one qualifying media file: the primary
// first, then its sidecar when one exists.
type CopyTask struct {
	Sources []CopySource
}

// Evaluate decides whether a media file qualifies for copying and, when it
// does, returns the exact set of paths to copy. A file qualifies when its own
// Label and Headline are both present and non-blank. Sidecar tags never count
// toward the decision, but an existing sidecar always rides along with a
// qualifying primary.
func Evaluate(rec MediaRecord, sidecar *SidecarRecord) (CopyTask, bool) {
	if !rec.Label.Filled() || !rec.Headline.Filled() {
		return CopyTask{}, false
	}
	task := CopyTask{
		Sources: []CopySource{{Path: rec.Path, RelPath: rec.RelPath}},
	}
	if sidecar != nil {
		task.Sources = append(task.Sources, CopySource{
			Path:    sidecar.Path,
			RelPath: sidecar.RelPath,
			Sidecar: true,
		})
	}
	return task, true
}
