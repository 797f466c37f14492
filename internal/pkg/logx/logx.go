// Package logx configures the process-wide zerolog logger.
//
// Long-lived components take a tagged child logger from Component. The key-value
// helpers (Info, Warn, ...) are for one-off call sites such as startup and handlers.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the output format and the fields stamped on every entry.
type Config struct {
	// Development switches to colored console output at Debug level.
	// Otherwise entries are JSON lines on stdout at Info level.
	Development bool

	// Service, when set, is attached to every entry as "service".
	Service string
}

// InitGlobalLogger replaces the global logger. Entries carry a Unix timestamp and
// the caller location.
func InitGlobalLogger(cfg Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if cfg.Development {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp().Caller()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log.Logger = ctx.Logger()
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

func Debug(msg string, kv ...any) { write(Logger().Debug(), nil, msg, kv) }

func Info(msg string, kv ...any) { write(Logger().Info(), nil, msg, kv) }

func Warn(msg string, kv ...any) { write(Logger().Warn(), nil, msg, kv) }

func Error(err error, msg string, kv ...any) { write(Logger().Error(), err, msg, kv) }

// Fatal logs and exits the process with status 1.
func Fatal(err error, msg string, kv ...any) { write(Logger().Fatal(), err, msg, kv) }

// write attaches err and the key-value pairs to e and sends it. A trailing key
// without a value is kept under "dangling_field".
func write(e *zerolog.Event, err error, msg string, kv []any) {
	if e == nil {
		return
	}
	if err != nil {
		e = e.Err(err)
	}
	if len(kv)%2 != 0 {
		e = e.Interface("dangling_field", kv[len(kv)-1])
		kv = kv[:len(kv)-1]
	}
	e.Fields(kv).CallerSkipFrame(2).Msg(msg)
}
