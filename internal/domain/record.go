package domain

import (
	"path/filepath"
	"strings"
)

// Tag is an optional string read from file metadata. Present distinguishes a
// tag that exists with an empty value from one the reader never returned;
// qualification treats both the same.
type Tag struct {
	Value   string
	Present bool
}

func NewTag(value string) Tag {
	return Tag{Value: value, Present: true}
}

// Filled reports whether the tag carries a non-blank value.
func (t Tag) Filled() bool {
	return t.Present && strings.TrimSpace(t.Value) != ""
}

// TagSet holds the metadata fields read for a single path.
type TagSet struct {
	Path     string
	Label    Tag
	Headline Tag
	TakenAt  Tag // DateTimeOriginal as reported, "2006:01:02 15:04:05"
	TypeExt  Tag // FileTypeExtension as reported
}

type MediaRecord struct {
	Path     string
	RelPath  string
	Name     string
	Label    Tag
	Headline Tag
	TakenAt  Tag
	TypeExt  Tag
}

type SidecarRecord struct {
	Path     string
	RelPath  string
	Name     string
	Label    Tag
	Headline Tag
	TakenAt  Tag
}

func NewMediaRecord(path, relPath string, tags TagSet) MediaRecord {
	return MediaRecord{
		Path:     path,
		RelPath:  relPath,
		Name:     filepath.Base(path),
		Label:    tags.Label,
		Headline: tags.Headline,
		TakenAt:  tags.TakenAt,
		TypeExt:  tags.TypeExt,
	}
}

func NewSidecarRecord(path, relPath string, tags TagSet) SidecarRecord {
	return SidecarRecord{
		Path:     path,
		RelPath:  relPath,
		Name:     filepath.Base(path),
		Label:    tags.Label,
		Headline: tags.Headline,
		TakenAt:  tags.TakenAt,
	}
}
