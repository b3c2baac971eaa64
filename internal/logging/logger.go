// Package logging provides leveled, named, structured logging for sleuth.
//
// The API is deliberately small and explicit. Initialize the global level at
// startup, then take a named logger per component:
//
//	logging.Initialize("info")
//	logger := logging.GetLogger("diagnosis")
//	logger.Info("engine ready")
//	logger.Info("diagnosed user in %dms", elapsed.Milliseconds())
//
// Structured fields travel either per call or pinned to a child logger:
//
//	logger.InfoWithFields("report generated",
//	    logging.Field("issues", len(issues)),
//	    logging.Field("primary", string(kind)),
//	)
//
//	runLogger := logger.WithField("report_id", id)
//	runLogger.Debug("ranking complete")
//
// Levels are DEBUG, INFO, WARN, ERROR and FATAL; Fatal terminates the
// process with exit code 1. Individual components can be made more or less
// verbose without touching the rest:
//
//	logging.Initialize("info", map[string]string{
//	    "collect.*": "debug",
//	    "api":       "warn",
//	})
//
// Patterns support an exact name ("api") or a prefix wildcard ("collect.*").
//
// Logger values are immutable: WithField, WithFields and WithName return new
// instances, so loggers can be shared across goroutines freely.
package logging

import (
	"os"
	"strings"
	"sync"
)

var (
	globalLogger *Logger
	initOnce     sync.Once

	// exitFunc is called by Fatal. Overridable in tests.
	exitFunc = os.Exit
)

// Initialize sets the global default level and optional per-component
// overrides. Unknown level strings fall back to INFO.
func Initialize(levelStr string, componentLevels ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalLogger = &Logger{
		level: level,
		name:  "sleuth",
	}

	if len(componentLevels) > 0 && componentLevels[0] != nil {
		if err := SetComponentLogLevels(componentLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a logger named after a component. The global logger is
// lazily initialized at INFO if Initialize was never called.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// shouldLog applies the component override when one exists, otherwise the
// logger's own level.
func (l *Logger) shouldLog(level LogLevel) bool {
	if override := GetComponentLogLevel(l.name); override >= 0 {
		return level >= override
	}
	return level >= l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf(labelDebug, msg, args...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf(labelInfo, msg, args...)
	}
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf(labelWarn, msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(labelError, msg, args...)
	}
}

// ErrorWithErr logs an error message with the error appended.
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf(labelError, msg+" - %v", args...)
	}
}

// Fatal logs a fatal message and exits the process with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf(labelFatal, msg, args...)
		exitFunc(1)
	}
}

// DebugWithFields logs a debug message with structured fields.
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields(labelDebug, msg, fields...)
	}
}

// InfoWithFields logs an informational message with structured fields.
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields(labelInfo, msg, fields...)
	}
}

// WarnWithFields logs a warning with structured fields.
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields(labelWarn, msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields.
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(labelError, msg, fields...)
	}
}

// WithName returns a new logger with a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// WithField returns a new logger that pins key=value to every message.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	next := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	next.fields[key] = value
	return next
}

// WithFields returns a new logger that pins all given fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	next := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

// logWithFields merges pinned and per-call fields (per-call wins) and writes.
func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	var merged map[string]interface{}
	if len(l.fields) > 0 || len(fields) > 0 {
		merged = cloneFields(l.fields)
		for _, f := range fields {
			merged[f.Key] = f.Value
		}
	}
	l.writeLog(level, msg, merged)
}

// cloneFields copies a field map; never returns nil.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// parseLevel converts a level string to its LogLevel.
func parseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToUpper(levelStr) {
	case labelDebug:
		return DEBUG, nil
	case labelInfo:
		return INFO, nil
	case labelWarn:
		return WARN, nil
	case labelError:
		return ERROR, nil
	case labelFatal:
		return FATAL, nil
	default:
		return -1, &InvalidLevelError{Level: levelStr}
	}
}
