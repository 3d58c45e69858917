// Package logger provides leveled structured logging backed by logrus.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger = logrus.New()

// Init initializes the default logger with the specified level and format
// ("json" or "text").
func Init(level string, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	defaultLogger.SetLevel(lvl)
	defaultLogger.SetOutput(os.Stderr)

	if strings.ToLower(format) == "text" {
		defaultLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		defaultLogger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs the message and exits with status 1.
func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatalf(format, args...)
}
