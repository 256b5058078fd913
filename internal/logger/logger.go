// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps the gommon logger that echo uses, so application and HTTP logs share one
// output, level and format.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const (
	textHeader = "${time_rfc3339} ${level} ${prefix}"
	jsonHeader = `{"time":"${time_rfc3339_nano}","level":"${level}","prefix":"${prefix}"}`
)

var (
	// Global logger instance
	defaultLogger = newLogger("info", "text", os.Stderr)
	jsonFormat    = false

	// exit is swapped in tests
	exit = os.Exit
)

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	defaultLogger = newLogger(level, format, os.Stderr)
	jsonFormat = strings.ToLower(format) == "json"
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// JSON reports whether the default logger writes JSON lines.
func JSON() bool {
	return jsonFormat
}

// Default returns the shared logger; echo uses it as its Logger.
func Default() *log.Logger {
	return defaultLogger
}

// ParseLevel maps a config level name to a gommon level. Unknown names map
// to INFO.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

func newLogger(level, format string, w io.Writer) *log.Logger {
	l := log.New("cardash")
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	if strings.ToLower(format) == "json" {
		l.SetHeader(jsonHeader)
	} else {
		l.SetHeader(textHeader)
	}
	return l
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	defaultLogger.Errorf("[FATAL] %s", fmt.Sprintf(format, args...))
	exit(1)
}
