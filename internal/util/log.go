package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	logMu     sync.RWMutex
	logOutput io.Writer = os.Stderr
	logLevel            = LevelInfo
	useColors           = IsTerminal(os.Stderr.Fd())
	useJSON             = false
	logger              = buildLogger()
)

func (l LogLevel) zerolog() zerolog.Level {
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

// buildLogger must be called with logMu held (or during package init)
func buildLogger() zerolog.Logger {
	var w io.Writer = logOutput
	if !useJSON {
		w = zerolog.ConsoleWriter{
			Out:        logOutput,
			NoColor:    !useColors,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(w).Level(logLevel.zerolog()).With().Timestamp().Logger()
}

func reconfigure(fn func()) {
	logMu.Lock()
	defer logMu.Unlock()
	fn()
	logger = buildLogger()
}

// SetLogLevel sets the minimum log level to display
func SetLogLevel(level LogLevel) {
	reconfigure(func() { logLevel = level })
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LevelDebug)
	}
}

// SetQuiet enables quiet mode (errors only)
func SetQuiet(quiet bool) {
	if quiet {
		SetLogLevel(LevelError)
	}
}

// IsQuiet reports whether only errors are shown
func IsQuiet() bool {
	logMu.RLock()
	defer logMu.RUnlock()
	return logLevel >= LevelError
}

// SetColors enables or disables colored output
func SetColors(enabled bool) {
	reconfigure(func() { useColors = enabled })
}

// SetJSON switches between console and JSON-lines output
func SetJSON(enabled bool) {
	reconfigure(func() { useJSON = enabled })
}

// SetOutput redirects log output (tests use a buffer)
func SetOutput(w io.Writer) {
	reconfigure(func() { logOutput = w })
}

// Logger returns the underlying structured logger
func Logger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// DebugLog logs debug messages
func DebugLog(format string, args ...interface{}) {
	l := Logger()
	l.Debug().Msg(fmt.Sprintf(format, args...))
}

// InfoLog logs informational messages
func InfoLog(format string, args ...interface{}) {
	l := Logger()
	l.Info().Msg(fmt.Sprintf(format, args...))
}

// WarnLog logs warning messages
func WarnLog(format string, args ...interface{}) {
	l := Logger()
	l.Warn().Msg(fmt.Sprintf(format, args...))
}

// ErrorLog logs error messages
func ErrorLog(format string, args ...interface{}) {
	l := Logger()
	l.Error().Msg(fmt.Sprintf(format, args...))
}

// SuccessLog logs success messages (always shown unless quiet)
func SuccessLog(format string, args ...interface{}) {
	l := Logger()
	l.Info().Bool("ok", true).Msg(fmt.Sprintf(format, args...))
}
