package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatPretty  = "pretty"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger is a zerolog.Logger bound to the podscribe service name.
type Logger struct {
	zl      zerolog.Logger
	service string
}

var globalLogger *Logger

// Init replaces the global logger with one built from cfg.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	globalLogger = New(&cfg, cfg.ServiceName)
}

// GetGlobalLogger returns the logger installed by Init, or a console logger
// on stderr when Init has not run yet.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		cfg := Config{}
		cfg.ApplyDefaults()
		globalLogger = New(&cfg, "podscribe")
	}
	return globalLogger
}

// New builds a logger writing to cfg.Output.
func New(cfg *Config, service string) *Logger {
	out := io.Writer(os.Stderr)
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}
	return NewWithWriter(cfg, service, out)
}

// NewWithWriter builds a logger writing to w. Unknown levels fall back to info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if service == "" {
		service = "podscribe"
	}

	var zc zerolog.Context
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zc = zerolog.New(consoleWriter(w, cfg.NoColor)).With()
	default:
		zc = zerolog.New(w).With().Str("service", service)
	}
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger().Level(level), service: service}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), service: "nop"}
}

type contextKey string

// ContextWith stores one of the identifier fields (FieldRequestID,
// FieldRunID, FieldTraceID, FieldSpanID) for WithContext to pick up.
func ContextWith(ctx context.Context, field, value string) context.Context {
	return context.WithValue(ctx, contextKey(field), value)
}

// WithContext copies the identifiers stored by ContextWith onto the logger.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.zl.With()
	for _, field := range []string{FieldRequestID, FieldRunID, FieldTraceID, FieldSpanID} {
		if v, ok := ctx.Value(contextKey(field)).(string); ok && v != "" {
			zc = zc.Str(field, v)
		}
	}
	return l.derive(zc)
}

// WithComponent tags every line with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name))
}

// WithError attaches err to every line.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err))
}

func (l *Logger) derive(zc zerolog.Context) *Logger {
	return &Logger{zl: zc.Logger(), service: l.service}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// Package-level helpers log through the global logger.

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

func emit(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, m := range fields {
		event.Fields(m)
	}
	event.Msg(msg)
}

var levelColors = map[string]int{
	"debug": 36,
	"info":  32,
	"warn":  33,
	"error": 31,
}

// consoleWriter renders "15:04:05 INF [orchestrator] message key:value".
// The component field moves in front of the message.
func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		FormatPrepare: func(evt map[string]interface{}) error {
			if comp, ok := evt[FieldComponent].(string); ok {
				evt[zerolog.MessageFieldName] = fmt.Sprintf("[%s] %v", comp, evt[zerolog.MessageFieldName])
				delete(evt, FieldComponent)
			}
			return nil
		},
		FormatLevel: func(i interface{}) string {
			lvl, _ := i.(string)
			tag := strings.ToUpper(lvl)
			if len(tag) > 3 {
				tag = tag[:3]
			}
			if color, ok := levelColors[lvl]; ok && !noColor {
				return fmt.Sprintf("\033[%dm%s\033[0m", color, tag)
			}
			return tag
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprintf("%s:", i) },
	}
}
