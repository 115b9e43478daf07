// Package logger provides structured logging for the assistant, backed by logrus.
package logger

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// LogField is a single structured log field.
type LogField struct {
	Key   string
	Value string
}

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	WithFields(fields ...LogField) Logger
	HTTPMiddleware(next http.Handler) http.Handler
}

// Config represents logger configuration.
type Config struct {
	Level   Level
	Format  string // "json" or "text"
	Service string
	Output  io.Writer // defaults to os.Stdout
}

type logger struct {
	logrus *logrus.Logger
	fields []LogField
}

// New creates a logger from the given configuration.
func New(config Config) Logger {
	l := logrus.New()

	if config.Format == "text" {
		l.SetFormatter(&logrus.TextFormatter{})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.Output != nil {
		l.SetOutput(config.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	switch config.Level {
	case DebugLevel:
		l.SetLevel(logrus.DebugLevel)
	case WarnLevel:
		l.SetLevel(logrus.WarnLevel)
	case ErrorLevel:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	var base []LogField
	if config.Service != "" {
		base = []LogField{{Key: "service", Value: config.Service}}
	}

	return &logger{logrus: l, fields: base}
}

// WithFields returns a new logger carrying the additional fields.
func (l *logger) WithFields(fields ...LogField) Logger {
	merged := make([]LogField, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logger{logrus: l.logrus, fields: merged}
}

func (l *logger) Debug(msg string, fields ...LogField) { l.log(logrus.DebugLevel, msg, fields...) }
func (l *logger) Info(msg string, fields ...LogField)  { l.log(logrus.InfoLevel, msg, fields...) }
func (l *logger) Warn(msg string, fields ...LogField)  { l.log(logrus.WarnLevel, msg, fields...) }
func (l *logger) Error(msg string, fields ...LogField) { l.log(logrus.ErrorLevel, msg, fields...) }

func (l *logger) log(level logrus.Level, msg string, fields ...LogField) {
	lf := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		lf[f.Key] = f.Value
	}
	for _, f := range fields {
		lf[f.Key] = f.Value
	}

	entry := l.logrus.WithFields(lf)
	switch level {
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

// StringField creates a string log field.
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField creates an integer log field.
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: strconv.Itoa(value)}
}

// BoolField creates a boolean log field.
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: strconv.FormatBool(value)}
}

// DurationField creates a duration log field.
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// ErrorField creates an "error" log field.
func ErrorField(err error) LogField {
	if err == nil {
		return LogField{Key: "error", Value: ""}
	}
	return LogField{Key: "error", Value: err.Error()}
}

// responseWriter captures the status code and bytes written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMiddleware logs one line per completed HTTP request.
func (l *logger) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		l.WithFields(
			StringField("method", r.Method),
			StringField("path", r.URL.Path),
			StringField("remote", r.RemoteAddr),
			IntField("status", wrapped.statusCode),
			IntField("response_bytes", wrapped.bytesWritten),
			DurationField("duration", time.Since(start)),
		).Info("HTTP request handled")
	})
}
