// Package logger wraps zerolog with the defaults used across verifyhub
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Options configures a logger
type Options struct {
	Level   string
	Format  string // "console" or "json"
	Service string
	Writer  io.Writer
}

var root atomic.Pointer[zerolog.Logger]

// New builds a logger from opt without touching the process-wide root
func New(opt Options) Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.Service != "" {
		ctx = ctx.Str("service", opt.Service)
	}
	return ctx.Logger()
}

// Init replaces the process-wide root logger
func Init(opt Options) {
	l := New(opt)
	root.Store(&l)
}

// Get returns the root logger, defaulting to info-level console output on stderr
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	l := New(Options{Level: "info"})
	root.CompareAndSwap(nil, &l)
	return root.Load()
}

// Named returns a child of the root logger with a component field
func Named(component string) Logger {
	if component == "" {
		return *Get()
	}
	return Get().With().Str("component", component).Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Into returns a copy of ctx carrying l
func Into(ctx context.Context, l Logger) context.Context {
	return l.WithContext(ctx)
}

// C returns the logger stored in ctx, or the root logger when there is none
func C(ctx context.Context) *Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return Get()
}
