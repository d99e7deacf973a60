// Package zlog provides structured logging for Zeppelin using zerolog.
//
// It wraps zerolog the way the rest of the ecosystem does: a package-level
// global logger initialized once via Init, plus With* helpers that attach
// component-scoped fields (namespace, fragment_id, segment_id) to child
// loggers so every subsystem's log lines are filterable without grep.
package zlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func init() {
	// sane default before Init is called (e.g. in tests)
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func WithNamespace(component, namespace string) zerolog.Logger {
	return Logger.With().Str("component", component).Str("namespace", namespace).Logger()
}

func WithFragment(l zerolog.Logger, fragmentID string) zerolog.Logger {
	return l.With().Str("fragment_id", fragmentID).Logger()
}

func WithSegment(l zerolog.Logger, segmentID string) zerolog.Logger {
	return l.With().Str("segment_id", segmentID).Logger()
}
