package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"
)

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

func NewLogger(component string) zerolog.Logger {
	logger := zerolog.New(logDestination()).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(logLevel())

	return logger
}

func logLevel() zerolog.Level {
	level, ok := os.LookupEnv("HICD_RECORDS_LOGLEVEL")
	if !ok {
		level = LOG_LEVEL_INFO
	}

	switch level {
	case LOG_LEVEL_DEBUG:
		return zerolog.DebugLevel
	case LOG_LEVEL_WARN:
		return zerolog.WarnLevel
	case LOG_LEVEL_ERROR:
		return zerolog.ErrorLevel
	case LOG_LEVEL_FATAL:
		return zerolog.FatalLevel
	case LOG_LEVEL_PANIC:
		return zerolog.PanicLevel
	}
	return zerolog.InfoLevel
}

// logDestination picks the log sink: JSON to stderr, or the human-readable
// console writer when HICD_RECORDS_LOG_HUMAN is set.
func logDestination() io.Writer {
	if os.Getenv("HICD_RECORDS_LOG_HUMAN") == "true" {
		return zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return os.Stderr
}
