// SPDX-License-Identifier: EPL-2.0

// Package logger wraps zerolog with the defaults used across quadbinaural.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var pid = os.Getpid()

// Logger is a thin zerolog wrapper. A nil *Logger is not valid; use Nop.
type Logger struct {
	logger *zerolog.Logger
}

// New returns a JSON logger writing to stderr.
func New(isDebug bool) *Logger {
	logger := zerolog.New(os.Stderr).
		Level(level(isDebug)).
		With().Timestamp().Int("pid", pid).
		Logger()
	return &Logger{logger: &logger}
}

// NewConsole returns a human readable logger writing to stdout.
// tag is printed in front of every message.
func NewConsole(isDebug bool, tag string, noColor bool) *Logger {
	return newConsole(os.Stdout, isDebug, tag, noColor)
}

func newConsole(out io.Writer, isDebug bool, tag string, noColor bool) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.0000", NoColor: noColor,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"s",
			"c",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s", "c"},
	}
	if noColor {
		output.FormatMessage = func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%v", i)
		}
	}

	logger := zerolog.New(output).
		Level(level(isDebug)).
		With().
		Str("s", tag).
		Str("c", " ").
		Timestamp().Logger()
	return &Logger{logger: &logger}
}

// NewWriter returns a JSON logger writing to w, mostly useful in tests.
func NewWriter(w io.Writer, isDebug bool) *Logger {
	logger := zerolog.New(w).Level(level(isDebug)).With().Timestamp().Logger()
	return &Logger{logger: &logger}
}

// Default returns a logger writing JSON to stderr at info level.
func Default() *Logger { return New(false) }

// Nop returns a disabled logger.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{logger: &logger}
}

// OrNop returns l, or a disabled logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func level(isDebug bool) zerolog.Level {
	if isDebug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context { return l.logger.With() }

// Extend adds some additional context to the existing logger.
func (l *Logger) Extend(ctx zerolog.Context) *Logger {
	logger := ctx.Logger()
	return &Logger{logger: &logger}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return l.Extend(l.With().Str("c", name))
}

// Debug starts a new message with debug level.
// You must call Msg on the returned event in order to send the event.
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

// Info starts a new message with info level.
func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

// Warn starts a new message with warn level.
func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

// Error starts a new message with error level.
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Writer returns an io.Writer that logs every line written to it at debug level
// with the proc field set. Used to forward child process output.
func (l *Logger) Writer(proc string) io.Writer {
	return &lineWriter{log: l, proc: proc}
}

type lineWriter struct {
	log  *Logger
	proc string
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := string(w.buf[:i]); line != "" {
			w.log.Debug().Str("proc", w.proc).Msg(line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
