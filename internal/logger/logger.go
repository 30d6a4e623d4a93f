package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	out io.Writer = os.Stdout
	log           = zerolog.New(consoleWriter()).With().Timestamp().Logger()
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to its Level, case-insensitively. The second
// return value is false for unknown names.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// Configure applies a full logging configuration: destination first, then
// format, then minimum level. Output is "stdout", "stderr" or a file path
// opened in append mode.
func Configure(level, format, output string) error {
	switch strings.ToLower(output) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		out = file
	}
	SetFormat(format)
	SetLevel(level)
	return nil
}

// SetLevel adjusts the minimum severity that gets emitted. Unknown names
// leave the level unchanged.
func SetLevel(level string) {
	if l, ok := ParseLevel(level); ok {
		log = log.Level(l.zerolog())
	}
}

// SetFormat switches between human-readable console output and
// line-per-event JSON. Unknown names keep the current format.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		log = log.Output(out)
	case "text", "console":
		log = log.Output(consoleWriter())
	}
}

// Zerolog exposes the underlying logger for middleware that wants
// structured events instead of the printf helpers.
func Zerolog() zerolog.Logger {
	return log
}

func Debug(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func Info(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func Warn(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func Error(format string, v ...any) {
	log.Error().Msgf(format, v...)
}
