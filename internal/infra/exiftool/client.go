package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"tagsift/internal/domain"
)

var commandContext = exec.CommandContext

// Client defines metadata reads through an external exiftool process.
type Client interface {
	ReadTags(ctx context.Context, paths ...string) ([]domain.TagSet, error)
	Version(ctx context.Context) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds each exiftool invocation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// CLI wraps the exiftool command line tool.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "exiftool"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ReadTags invokes exiftool once for the given paths and returns one tag
// set per path, in argument order. A path exiftool produced no object
// for gets a set with only Path filled, so its tags read as absent. When
// exiftool exits non-zero but still printed usable JSON, the output
// wins; files it could not read simply stay tagless.
func (c *CLI) ReadTags(ctx context.Context, paths ...string) ([]domain.TagSet, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one path required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(
		[]string{"-j", "-m", "-Label", "-Headline", "-DateTimeOriginal", "-FileTypeExtension"},
		paths...,
	)
	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	var entries []map[string]any
	if len(bytes.TrimSpace(stdout.Bytes())) > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
			if runErr != nil {
				return nil, fmt.Errorf("exiftool: %w: %s", runErr, strings.TrimSpace(stderr.String()))
			}
			return nil, fmt.Errorf("decode exiftool output: %w", err)
		}
	} else if runErr != nil {
		return nil, fmt.Errorf("exiftool: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	bySource := make(map[string]map[string]any, len(entries))
	for _, entry := range entries {
		if src, ok := entry["SourceFile"].(string); ok {
			bySource[src] = entry
		}
	}

	sets := make([]domain.TagSet, 0, len(paths))
	for _, path := range paths {
		entry := bySource[path]
		sets = append(sets, domain.TagSet{
			Path:     path,
			Label:    tagFrom(entry, "Label"),
			Headline: tagFrom(entry, "Headline"),
			TakenAt:  tagFrom(entry, "DateTimeOriginal"),
			TypeExt:  tagFrom(entry, "FileTypeExtension"),
		})
	}
	return sets, nil
}

// Version reports the exiftool version, for environment checks.
func (c *CLI) Version(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "-ver")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("exiftool -ver: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func tagFrom(entry map[string]any, key string) domain.Tag {
	if entry == nil {
		return domain.Tag{}
	}
	val, ok := entry[key]
	if !ok || val == nil {
		return domain.Tag{}
	}
	switch v := val.(type) {
	case string:
		return domain.NewTag(v)
	default:
		// exiftool occasionally reports numeric tag values.
		return domain.NewTag(fmt.Sprint(v))
	}
}

var _ Client = (*CLI)(nil)
