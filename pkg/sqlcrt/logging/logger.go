// Package logging provides the leveled logger used by sqlcrt adapters and
// examples. Output is JSON unless the destination is a terminal, in which
// case entries are written for humans and values with a PrettyPrint method
// render themselves.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// PrettyPrinter is implemented by log payloads that know how to render
// themselves on a terminal.
type PrettyPrinter interface {
	PrettyPrint(writer io.Writer)
}

type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Notice(args ...any)
	Noticef(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	ChangeLevel(level Level)
}

type logger struct {
	*state
	zap *zap.Logger
}

// state is shared between a logger and the children made by with.
type state struct {
	level      Level
	atomic     zap.AtomicLevel
	out        io.Writer
	isTerminal bool
	mu         sync.Mutex
}

// NewLogger returns a Logger writing to stdout.
func NewLogger(level Level) Logger {
	return newLogger(level, os.Stdout, isTerminal(os.Stdout))
}

// NewWithWriter returns a Logger writing JSON to w.
func NewWithWriter(level Level, w io.Writer) Logger {
	return newLogger(level, w, false)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newLogger(level Level, w io.Writer, terminal bool) *logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if terminal {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	atomic := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), atomic)

	return &logger{
		state: &state{
			level:      level,
			atomic:     atomic,
			out:        w,
			isTerminal: terminal,
		},
		zap: zap.New(core),
	}
}

func (l *logger) with(fields ...zap.Field) *logger {
	return &logger{state: l.state, zap: l.zap.With(fields...)}
}

func (l *logger) enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return level >= l.level
}

func (l *logger) logf(level Level, format string, args ...any) {
	if !l.enabled(level) {
		return
	}

	if format == "" && len(args) == 1 {
		if p, ok := args[0].(PrettyPrinter); ok {
			l.pretty(level, p)
			return
		}
	}

	msg, fields := message(format, args)
	if level == NOTICE {
		fields = append(fields, zap.String("notice", "true"))
	}

	if ce := l.zap.Check(level.zapLevel(), msg); ce != nil {
		ce.Write(fields...)
	}
}

// pretty writes p as-is on terminals and as a structured payload otherwise.
func (l *logger) pretty(level Level, p PrettyPrinter) {
	if !l.isTerminal {
		if ce := l.zap.Check(level.zapLevel(), ""); ce != nil {
			ce.Write(zap.Any("message", p))
		}

		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%-6s ", level)
	p.PrettyPrint(l.out)

	if level == FATAL {
		os.Exit(1)
	}
}

// message turns a single non-string argument into a structured field and
// formats everything else.
func message(format string, args []any) (string, []zap.Field) {
	if format != "" {
		return fmt.Sprintf(format, args...), nil
	}

	if len(args) == 1 {
		switch v := args[0].(type) {
		case string:
			return v, nil
		case error:
			return v.Error(), []zap.Field{zap.Error(v)}
		case fmt.Stringer:
			return v.String(), nil
		default:
			return "", []zap.Field{zap.Any("message", v)}
		}
	}

	return fmt.Sprint(args...), nil
}

func (l *logger) Debug(args ...any)             { l.logf(DEBUG, "", args...) }
func (l *logger) Debugf(f string, args ...any)  { l.logf(DEBUG, f, args...) }
func (l *logger) Log(args ...any)               { l.logf(INFO, "", args...) }
func (l *logger) Logf(f string, args ...any)    { l.logf(INFO, f, args...) }
func (l *logger) Info(args ...any)              { l.logf(INFO, "", args...) }
func (l *logger) Infof(f string, args ...any)   { l.logf(INFO, f, args...) }
func (l *logger) Notice(args ...any)            { l.logf(NOTICE, "", args...) }
func (l *logger) Noticef(f string, args ...any) { l.logf(NOTICE, f, args...) }
func (l *logger) Warn(args ...any)              { l.logf(WARN, "", args...) }
func (l *logger) Warnf(f string, args ...any)   { l.logf(WARN, f, args...) }
func (l *logger) Error(args ...any)             { l.logf(ERROR, "", args...) }
func (l *logger) Errorf(f string, args ...any)  { l.logf(ERROR, f, args...) }
func (l *logger) Fatal(args ...any)             { l.logf(FATAL, "", args...) }
func (l *logger) Fatalf(f string, args ...any)  { l.logf(FATAL, f, args...) }

func (l *logger) ChangeLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()

	l.atomic.SetLevel(level.zapLevel())
}
