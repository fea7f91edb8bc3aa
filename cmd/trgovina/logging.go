package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter sends records below ERROR to out and the rest to errOut.
type levelRouter struct {
	min    slog.Level
	out    slog.Handler
	errOut slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.errOut.Handle(ctx, r)
	}
	return lr.out.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{min: lr.min, out: lr.out.WithAttrs(attrs), errOut: lr.errOut.WithAttrs(attrs)}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{min: lr.min, out: lr.out.WithGroup(name), errOut: lr.errOut.WithGroup(name)}
}

// setupLogger installs the default logger. With logPath set every record is
// also appended to that file. The returned cleanup closes it and may be nil.
func setupLogger(logPath string, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	out := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)
	var cleanup func()

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
		errOut = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(&levelRouter{
		min:    level,
		out:    slog.NewTextHandler(out, opts),
		errOut: slog.NewTextHandler(errOut, opts),
	})
	slog.SetDefault(logger)
	return logger, cleanup, nil
}
