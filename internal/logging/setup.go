// Package logging configures zerolog output and manages log files on disk.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the log level and an optional log file directory.
type Options struct {
	Dir   string
	Level string
}

// Setup replaces the global logger. Output always goes to stderr, since stdout
// carries the stdio tool protocol, and additionally to a daily JSON file when
// opts.Dir is set. The returned closer closes that file.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		w := NewWriter(opts.Dir)
		out = zerolog.MultiLevelWriter(out, w)
		closer = w
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger, closer, nil
}

// ParseLevel maps a configured level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
