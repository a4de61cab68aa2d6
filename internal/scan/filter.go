package scan

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/h2non/filetype"
)

// HeaderLen is the number of leading bytes content sniffing needs.
const HeaderLen = 261

// Filter decides which walked paths are media candidates and which
// subtrees stay out of a scan.
type Filter struct {
	exts     map[string]bool
	excludes []pattern
	prunes   []pattern
	sniff    bool
}

// pattern keeps the anchoring of the original exclude spelling. Trimming
// "/**" off "backup/**" must not turn an anchored pattern into a
// match-anywhere name.
type pattern struct {
	glob     string
	anchored bool
}

// NewFilter builds a filter from the configured extension allow-list and
// exclude patterns. Extensions are matched case-insensitively with or
// without a leading dot. Exclude patterns follow doublestar syntax; a
// pattern without a slash matches directory and file names at any depth,
// a pattern with a slash is anchored at the scan root.
func NewFilter(extensions, excludes []string, sniff bool) *Filter {
	f := &Filter{
		exts:  make(map[string]bool, len(extensions)),
		sniff: sniff,
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.exts[ext] = true
	}
	for _, raw := range excludes {
		raw = strings.ToLower(filepath.ToSlash(strings.TrimSpace(raw)))
		raw = strings.TrimSuffix(raw, "/")
		if raw == "" {
			continue
		}
		anchored := strings.Contains(raw, "/")
		f.excludes = append(f.excludes, pattern{glob: raw, anchored: anchored})
		f.prunes = append(f.prunes, pattern{glob: strings.TrimSuffix(raw, "/**"), anchored: anchored})
	}
	return f
}

// MediaExt reports whether the file name carries an allowed media
// extension.
func (f *Filter) MediaExt(name string) bool {
	return f.exts[strings.ToLower(filepath.Ext(name))]
}

// Sniff reports whether files with unknown extensions may still be
// admitted by content.
func (f *Filter) Sniff() bool { return f.sniff }

// MediaContent reports whether the leading bytes of a file identify an
// image or a video, independent of its name.
func (f *Filter) MediaContent(buf []byte) bool {
	kind, err := filetype.Match(buf)
	if err != nil || kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Type == "image" || kind.MIME.Type == "video"
}

// Excluded reports whether the root-relative path matches an exclude
// pattern.
func (f *Filter) Excluded(rel string) bool {
	return match(f.excludes, rel)
}

// ExcludedDir reports whether the subtree rooted at the root-relative
// directory is excluded entirely, so the walk can prune it. A trailing
// "/**" on a pattern covers the directory itself.
func (f *Filter) ExcludedDir(rel string) bool {
	return match(f.prunes, rel)
}

func match(patterns []pattern, rel string) bool {
	rel = strings.ToLower(filepath.ToSlash(rel))
	base := path.Base(rel)
	for _, p := range patterns {
		target := rel
		if !p.anchored {
			target = base
		}
		if ok, err := doublestar.Match(p.glob, target); err == nil && ok {
			return true
		}
	}
	return false
}

// SidecarCandidates returns the sidecar paths that may accompany a media
// file, preferred spelling first. The sidecar replaces the media
// extension, so IMG_0001.NEF pairs with IMG_0001.xmp.
func SidecarCandidates(mediaPath string) []string {
	stem := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	return []string{stem + ".xmp", stem + ".XMP"}
}
