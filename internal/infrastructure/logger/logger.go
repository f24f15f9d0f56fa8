package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	global zerolog.Logger
	once   sync.Once
)

// GetLogger returns the process logger. Before New has run it falls back to
// console output at info level, which covers early startup failures.
func GetLogger() zerolog.Logger {
	once.Do(func() {
		global = build(zerolog.InfoLevel, "console")
	})
	return global
}

// New configures the process logger from the LOG_LEVEL and LOG_FORMAT
// settings and installs it as the one GetLogger hands out.
func New(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	format = strings.ToLower(format)
	if format != "json" && format != "console" {
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	logger := build(lvl, format)

	global = logger
	once.Do(func() {})

	return logger, nil
}

func build(lvl zerolog.Level, format string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}
