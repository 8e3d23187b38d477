// Package utils provides the small ambient pieces shared by every other
// package in this module: structured logging and a running average —
// none of it specific to grids or particles.
package utils

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the logging surface every package in this module takes as a
// constructor argument instead of reaching for a global logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	DebugCtx(ctx context.Context, msg string, args ...any)
	InfoCtx(ctx context.Context, msg string, args ...any)
	WarnCtx(ctx context.Context, msg string, args ...any)
	ErrorCtx(ctx context.Context, msg string, args ...any)
}

type DefaultLogger struct {
	logger *slog.Logger
}

func NewDefaultLogger(level slog.Level) *DefaultLogger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return &DefaultLogger{logger: logger}
}

const prefix = "[picfield] "

func (d *DefaultLogger) Debug(msg string, args ...any) {
	d.logger.Debug(prefix+msg, args...)
}

func (d *DefaultLogger) Info(msg string, args ...any) {
	d.logger.Info(prefix+msg, args...)
}

func (d *DefaultLogger) Warn(msg string, args ...any) {
	d.logger.Warn(prefix+msg, args...)
}

func (d *DefaultLogger) Error(msg string, args ...any) {
	d.logger.Error(prefix+msg, args...)
}

// exchangeArgsKey threads per-halo-exchange correlation args (see the
// UUID-tagged exchanges in picfield's ExchangeHalo) through to *Ctx log
// calls.
var exchangeArgsKey int

func getCtxArgs(ctx context.Context) []any {
	ctxargs := ctx.Value(&exchangeArgsKey)
	if ctxargs == nil {
		ctxargs = make([]any, 0)
	}
	return ctxargs.([]any)
}

// WithArgs returns a context that appends args to every *Ctx log call
// made with it.
func WithArgs(ctx context.Context, args ...any) context.Context {
	dargs := getCtxArgs(ctx)
	dargs = append(dargs, args...)
	return context.WithValue(ctx, &exchangeArgsKey, dargs)
}

func (d *DefaultLogger) DebugCtx(ctx context.Context, msg string, args ...any) {
	args = append(args, getCtxArgs(ctx)...)
	d.logger.Debug(prefix+msg, args...)
}

func (d *DefaultLogger) InfoCtx(ctx context.Context, msg string, args ...any) {
	args = append(args, getCtxArgs(ctx)...)
	d.logger.Info(prefix+msg, args...)
}

func (d *DefaultLogger) WarnCtx(ctx context.Context, msg string, args ...any) {
	args = append(args, getCtxArgs(ctx)...)
	d.logger.Warn(prefix+msg, args...)
}

func (d *DefaultLogger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	args = append(args, getCtxArgs(ctx)...)
	d.logger.Error(prefix+msg, args...)
}

// Noop discards everything; handy for tests and single-rank examples
// that don't care about log output.
type Noop struct{}

func (Noop) Debug(string, ...any)                     {}
func (Noop) Info(string, ...any)                      {}
func (Noop) Warn(string, ...any)                      {}
func (Noop) Error(string, ...any)                     {}
func (Noop) DebugCtx(context.Context, string, ...any) {}
func (Noop) InfoCtx(context.Context, string, ...any)  {}
func (Noop) WarnCtx(context.Context, string, ...any)  {}
func (Noop) ErrorCtx(context.Context, string, ...any) {}
