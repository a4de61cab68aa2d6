package checkpoint

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// MarkerName is the file runs drop into directories they finished.
const MarkerName = ".tagsift_processed"

// Manager tracks per-directory completion markers under a scan root.
// A marker means the directory's direct files were fully processed by an
// earlier run; subdirectories are tracked by their own markers.
type Manager struct {
	root   string
	marker string
}

func NewManager(root, marker string) *Manager {
	return &Manager{root: root, marker: marker}
}

// Completed reports whether the root-relative directory carries a marker.
func (m *Manager) Completed(relDir string) bool {
	_, err := os.Stat(filepath.Join(m.root, relDir, m.marker))
	return err == nil
}

// Mark writes the marker for the root-relative directory. The scan root
// itself is never marked, so a leftover marker can never hide the whole
// tree from a later run.
func (m *Manager) Mark(relDir string) error {
	if relDir == "" || relDir == "." {
		return nil
	}
	path := filepath.Join(m.root, relDir, m.marker)
	return os.WriteFile(path, []byte("processed\n"), 0o644)
}

// Sweep removes every marker under the root and returns the number
// removed. Markers only persist across interrupted runs.
func (m *Manager) Sweep() (int, error) {
	removed := 0
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || d.Name() != m.marker {
			return nil
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		removed++
		return nil
	})
	return removed, err
}
