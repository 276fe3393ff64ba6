// Package logging builds the zerolog loggers used by the CLI and the server.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"
)

// Format selects how log lines are rendered.
type Format string

const (
	Console Format = "console"
	JSON    Format = "json"
	Pretty  Format = "pretty"
)

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Console, JSON, Pretty:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want console, json or pretty)", s)
	}
}

// ParseLevel parses a zerolog level name. Empty or unknown names give info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New returns a timestamped logger writing to w in the given format.
func New(w io.Writer, format string, level string) (zerolog.Logger, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return zerolog.Nop(), err
	}

	var out io.Writer
	switch f {
	case Console:
		out = zerolog.ConsoleWriter{Out: w}
	case Pretty:
		out = prettyWriter{out: w}
	default:
		out = w
	}

	return zerolog.New(out).
		With().Timestamp().Logger().
		Level(ParseLevel(level)), nil
}

type prettyWriter struct {
	out io.Writer
}

func (p prettyWriter) Write(line []byte) (int, error) {
	if n, err := p.out.Write(pretty.Color(pretty.Pretty(line), nil)); err != nil {
		return n, err
	}
	return len(line), nil
}
