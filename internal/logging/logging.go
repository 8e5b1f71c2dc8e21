// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configure New.
type Options struct {
	Level  string
	Format string
	// File, if set, receives every log line in JSON in addition to the
	// console streams.
	File string
}

// levelRouter sends ERROR and above to stderr and everything else to stdout.
// If file is set it also gets every line.
type levelRouter struct {
	stdout io.Writer
	stderr io.Writer
	file   io.Writer
}

func (lr *levelRouter) Write(p []byte) (int, error) {
	return lr.WriteLevel(zerolog.NoLevel, p)
}

func (lr *levelRouter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	w := lr.stdout
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		w = lr.stderr
	}
	if _, err := w.Write(p); err != nil {
		return 0, err
	}
	if lr.file != nil {
		if _, err := lr.file.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// New builds a logger writing to stdout and stderr. The returned function
// closes the log file, if one was opened.
func New(opts Options, stdout, stderr io.Writer) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = zerolog.ParseLevel(opts.Level); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parsing log level: %w", err)
		}
	}

	switch opts.Format {
	case "", FormatJSON:
	case FormatConsole:
		stdout = zerolog.ConsoleWriter{Out: stdout}
		stderr = zerolog.ConsoleWriter{Out: stderr}
	default:
		return zerolog.Nop(), nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	router := &levelRouter{stdout: stdout, stderr: stderr}
	cleanup := func() {}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		router.file = f
		cleanup = func() { f.Close() }
	}

	logger := zerolog.New(router).Level(level).With().Timestamp().Logger()
	return logger, cleanup, nil
}
