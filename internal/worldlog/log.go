// Package worldlog wires the world server's structured logging. Every
// subsystem gets a named sub-logger instead of writing directly to stdout.
package worldlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().
	Timestamp().
	Logger()

// Logger wraps zerolog.Logger with printf-style helpers so packages that
// shouldn't import zerolog directly (internal/world, internal/session) can
// depend on a small interface instead.
type Logger struct {
	z zerolog.Logger
}

// New returns a logger scoped to component, e.g. "engine", "hub", "session".
func New(component string) Logger {
	return Logger{z: base.With().Str("component", component).Logger()}
}

func (l Logger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }
func (l Logger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l Logger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
func (l Logger) Errorf(format string, args ...any) { l.z.Error().Msgf(format, args...) }

// Raw exposes the underlying zerolog.Logger for structured field logging.
func (l Logger) Raw() zerolog.Logger { return l.z }

// SetGlobalLevel adjusts verbosity for every logger returned by New.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
