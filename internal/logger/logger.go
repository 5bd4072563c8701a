package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// Initialize sets up the application logger. Output goes to stdout and, when
// dir is non-empty and writable, to <dir>/secdesk.log as well.
func Initialize(logLevel, dir string) {
	l := logrus.New()

	var level logrus.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = logrus.DebugLevel
	case "WARN":
		level = logrus.WarnLevel
	case "ERROR":
		level = logrus.ErrorLevel
	default:
		level = logrus.InfoLevel
	}

	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
	l.SetReportCaller(true)
	l.SetOutput(os.Stdout)

	logFile := ""
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Failed to create logs directory: %v\n", err)
		} else {
			logFile = filepath.Join(dir, "secdesk.log")
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logFile = ""
			} else {
				l.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}

	Logger = l

	Logger.WithFields(logrus.Fields{
		"log_level": level.String(),
		"log_file":  logFile,
	}).Info("Logging system initialized")
}

// GetLogger returns the configured logger, falling back to an INFO stdout
// logger when Initialize was never called.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Initialize("INFO", "")
	}
	return Logger
}

// WithUser creates a logger with the acting account attached
func WithUser(userID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"user_id":   userID,
		"component": "controller",
	})
}

// WithIncident creates a logger scoped to one incident
func WithIncident(incidentID uint, actorID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"incident_id": incidentID,
		"actor_id":    actorID,
		"component":   "incident_service",
	})
}

// WithError creates a logger with error context
func WithError(err error, component string) *logrus.Entry {
	fields := logrus.Fields{
		"error":     err.Error(),
		"component": component,
	}

	if GetLogger().GetLevel() >= logrus.DebugLevel {
		fields["stack_trace"] = getStackTrace()
	}

	return GetLogger().WithFields(fields)
}

func getStackTrace() string {
	var stack []string
	for i := 2; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}
	return strings.Join(stack, "\n")
}

func Debug(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Fatal(msg)
}
