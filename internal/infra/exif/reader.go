package exif

import (
	"context"
	"errors"
	"os"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
)

const timeLayout = "2006:01:02 15:04:05"

// Reader extracts capture timestamps from embedded EXIF blocks without
// spawning a process. It backs rename mode when the metadata read
// reported no DateTimeOriginal.
type Reader struct{}

// CaptureTime returns the embedded capture time in exiftool's
// "2006:01:02 15:04:05" notation.
func (Reader) CaptureTime(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	meta, err := goexif.Decode(file)
	if err != nil {
		return "", err
	}

	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTimeDigitized} {
		tag, err := meta.Get(field)
		if err != nil {
			continue
		}
		if str, err := tag.StringVal(); err == nil && strings.TrimSpace(str) != "" {
			return strings.TrimSpace(str), nil
		}
	}

	if parsed, err := meta.DateTime(); err == nil {
		return parsed.Format(timeLayout), nil
	}

	return "", errors.New("exif capture time not found")
}
