package app

import (
	"context"
	"io/fs"

	"tagsift/internal/domain"
)

// ScanFS is the read side of the filesystem: what the planner needs to
// walk the tree and probe candidates.
type ScanFS interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	ReadHeader(path string, n int) ([]byte, error)
}

// CopyFS is the write side the executor drives. CopyFile creates any
// missing parent directories on its own.
type CopyFS interface {
	CopyFile(src, dst string) error
}

// MetadataReader reads the tags for a batch of paths in a single pass.
type MetadataReader interface {
	ReadTags(ctx context.Context, paths ...string) ([]domain.TagSet, error)
}

// ExifReader extracts a capture time from embedded EXIF data. Rename
// mode falls back to it when the metadata reader reported none.
type ExifReader interface {
	CaptureTime(ctx context.Context, path string) (string, error)
}

// Checkpoints tracks directories whose direct files are already done.
type Checkpoints interface {
	Completed(relDir string) bool
	Mark(relDir string) error
}
