package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // console or json
	Out    io.Writer // defaults to stderr
	File   string    // optional log file, receives the same events
}

// New constructs a zerolog logger from the options. The returned close
// function releases the log file when one is configured and is always
// safe to call.
func New(opts Options) (zerolog.Logger, func(), error) {
	noop := func() {}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("log level: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	case "json":
		writer = out
	default:
		return zerolog.Nop(), noop, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	closer := noop
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(writer, file)
		closer = func() { file.Close() }
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
