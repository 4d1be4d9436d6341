package observability

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// WriterLogger writes line-oriented structured output, one entry per call.
// Suitable for CLI use; hosts with their own logging stack should adapt
// Logger to it instead.
type WriterLogger struct {
	mu     sync.Mutex
	w      io.Writer
	min    Level
	fields []Field
}

func NewWriterLogger(w io.Writer, min Level) *WriterLogger {
	return &WriterLogger{w: w, min: min}
}

func (l *WriterLogger) log(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s %s", time.Now().Format(time.RFC3339), level, msg)
	for _, f := range l.fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.w)
}

func (l *WriterLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *WriterLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *WriterLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *WriterLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *WriterLogger) With(fields ...Field) Logger {
	child := &WriterLogger{w: l.w, min: l.min}
	child.fields = append(append([]Field(nil), l.fields...), fields...)
	return child
}

// Tracer provides distributed tracing hooks for editor operations.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Standard metric names emitted by the editor pipeline.
const (
	MetricExtractTime  = "editor.extract.duration"
	MetricFragmentCnt  = "editor.extract.fragments"
	MetricPersistOps   = "editor.persist.ops"
	MetricPersistFails = "editor.persist.failures"
	MetricRenderTime   = "editor.render.duration"
	MetricExportTime   = "editor.export.duration"
	MetricExportBytes  = "editor.export.bytes"
)
