// Package logging provides structured logging for the Cascade application.
//
// The logger supports five levels (DEBUG, INFO, WARN, ERROR, FATAL), named
// component loggers and structured key-value fields:
//
//	logger := logging.GetLogger("correlate")
//	logger.Info("window closed after %s", window)
//	logger.InfoWithFields("incident closed",
//	    logging.Field("incident_id", id),
//	    logging.Field("event_count", n),
//	)
//
// Logger instances are immutable; WithField and WithContext return new
// instances, so loggers are safe to share across goroutines.
package logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal messages
	FATAL
)

// LogField represents a structured logging field
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging for one named component
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

var (
	globalLevel = INFO
	initOnce    sync.Once
	levelMutex  sync.RWMutex
	// exitFunc is called by Fatal; overridable for tests.
	exitFunc = os.Exit
)

// Initialize sets the global default log level. Unknown level strings
// fall back to INFO.
func Initialize(levelStr string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	levelMutex.Lock()
	globalLevel = level
	levelMutex.Unlock()
	return nil
}

// ParseLevel converts a level string to a LogLevel
func ParseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s (must be debug, info, warn, error, or fatal)", levelStr)
	}
}

// GetLogger returns a logger with the specified component name
func GetLogger(name string) *Logger {
	initOnce.Do(func() {})
	levelMutex.RLock()
	defer levelMutex.RUnlock()
	return &Logger{
		level:  globalLevel,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	levelMutex.RLock()
	defer levelMutex.RUnlock()
	return level >= globalLevel
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf("ERROR", msg, args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message with an error object
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf("ERROR", msg+" - %v", args...)
	}
}

// WithField returns a new logger with a persistent structured field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    l.ctx,
	}
	newLogger.fields[key] = value
	return newLogger
}

// WithContext returns a new logger that extracts trace_id/span_id from ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    ctx,
	}
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields("ERROR", msg, fields...)
	}
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)
	merged := l.mergeFields(nil)
	l.writeLog(level, formatted, merged)
}

func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	l.writeLog(level, msg, l.mergeFields(fields))
}

// mergeFields combines context fields, persistent fields and call-site
// fields, with the call-site fields taking precedence.
func (l *Logger) mergeFields(fields []LogField) map[string]interface{} {
	contextFields := extractContextFields(l.ctx)
	if contextFields == nil && len(l.fields) == 0 && len(fields) == 0 {
		return nil
	}
	merged := make(map[string]interface{})
	for k, v := range contextFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return merged
}

// writeLog routes DEBUG/INFO/WARN to stdout and ERROR/FATAL to stderr
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	logMsg := fmt.Sprintf("[%s] [%s] %s: %s", timestamp(), level, l.name, msg)
	if len(fields) > 0 {
		logMsg += " |"
		for k, v := range fields {
			logMsg += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	if level == "ERROR" || level == "FATAL" {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}
}

// timestamp returns an RFC3339 timestamp; LOG_TIMESTAMP overrides it for
// deterministic test output.
func timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func cloneFields(fields map[string]interface{}) map[string]interface{} {
	cloned := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		cloned[k] = v
	}
	return cloned
}
