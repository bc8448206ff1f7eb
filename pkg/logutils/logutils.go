package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Options selects where a process logs and how every line is tagged.
type Options struct {
	Level   string // zerolog level name; empty means info
	File    string // append JSON here instead of stdout
	Service string // value of the "service" field on every line
	Mode    string // deployment mode, logged as "mode" when set
	Pretty  bool   // console output on stderr instead of JSON
}

// New builds a logger from opts. The returned func closes the log file, if one
// was opened, and is safe to call when none was.
func New(opts Options) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(opts.Level); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	var w io.Writer = os.Stdout
	switch {
	case opts.Pretty:
		w = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = f.Close() }
		w = f
	}

	return tagged(zerolog.New(w), opts).Level(lvl), closer, nil
}

// Console is the zonectl logger: human-readable on stderr, falling back to
// info when level does not parse.
func Console(level string) zerolog.Logger {
	l, _, err := New(Options{Level: level, Service: "zonectl", Pretty: true})
	if err != nil {
		l, _, _ = New(Options{Service: "zonectl", Pretty: true})
	}
	return l
}

func tagged(l zerolog.Logger, opts Options) zerolog.Logger {
	ctx := l.With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Mode != "" {
		ctx = ctx.Str("mode", opts.Mode)
	}
	return ctx.Logger()
}
