package domain

import (
	"path/filepath"
	"strings"
)

// SanitizeHeadline makes a headline safe for use in a file name: path and
// shell separators are dropped, spaces become underscores.
func SanitizeHeadline(headline string) string {
	var b strings.Builder
	b.Grow(len(headline))
	for _, r := range headline {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
		case ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CompactTimestamp strips the separators from an exiftool timestamp:
// "2007:06:03 14:05:59" becomes "20070603140559".
func CompactTimestamp(ts string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || r == ' ' {
			return -1
		}
		return r
	}, ts)
}

// RenamedName builds the flattened destination name used by rename mode:
// compacted capture time, sanitized headline and the original stem joined
// with underscores, keeping the original extension.
func RenamedName(takenAt, headline, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	date := CompactTimestamp(strings.TrimSpace(takenAt))
	if date == "" {
		date = "unknown_date"
	}
	head := SanitizeHeadline(strings.TrimSpace(headline))
	if head == "" {
		head = "no_headline"
	}
	return date + "_" + head + "_" + stem + ext
}
