package logging

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
)

var zerologLevels = map[level]zerolog.Level{
	levelDebug: zerolog.DebugLevel,
	levelInfo:  zerolog.InfoLevel,
	levelWarn:  zerolog.WarnLevel,
	levelError: zerolog.ErrorLevel,
}

type zlogger struct {
	l zerolog.Logger
}

func newZerolog(out io.Writer, lvl level, jsonFormat, addSource bool) Logger {
	w := out
	if !jsonFormat {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	zctx := zerolog.New(w).Level(zerologLevels[lvl]).With().Timestamp()
	if addSource {
		zctx = zctx.Caller()
	}
	return &zlogger{l: zctx.Logger()}
}

func (z *zlogger) With(fields ...Field) Logger {
	zctx := z.l.With()
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && err != nil {
			zctx = zctx.Str(f.Key, err.Error())
			continue
		}
		zctx = zctx.Interface(f.Key, f.Value)
	}
	return &zlogger{l: zctx.Logger()}
}

func (z *zlogger) Debug(_ context.Context, msg string, fields ...Field) {
	emit(z.l.Debug(), msg, fields)
}

func (z *zlogger) Info(_ context.Context, msg string, fields ...Field) {
	emit(z.l.Info(), msg, fields)
}

func (z *zlogger) Warn(_ context.Context, msg string, fields ...Field) {
	emit(z.l.Warn(), msg, fields)
}

func (z *zlogger) Error(_ context.Context, msg string, fields ...Field) {
	emit(z.l.Error(), msg, fields)
}

// emit is a no-op for events below the logger's level, which zerolog
// reports as nil.
func emit(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case float64:
			e = e.Float64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}
