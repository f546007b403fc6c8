// Package logging provides the structured logger used by the sink and the CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Logger wraps slog.Logger with sink-specific helpers so that record and
// batch events always carry the same field names.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to w. format is "text" or "json".
// If w is nil, logs go to stderr.
func New(level slog.Level, format string, w io.Writer) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	return &Logger{Logger: slog.New(h)}, nil
}

// Noop returns a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// WithTable adds the target table to every entry.
func (l *Logger) WithTable(table string) *Logger {
	return &Logger{Logger: l.Logger.With("table", table)}
}

// LogRecordSkipped logs a record dropped because it could not be transformed.
func (l *Logger) LogRecordSkipped(ctx context.Context, index int, field string, err error) {
	args := []any{"record", index, "error", err}
	if field != "" {
		args = append(args, "field", field)
	}
	l.WarnContext(ctx, "record skipped", args...)
}

// LogBatchWritten logs the outcome of one batch write.
func (l *Logger) LogBatchWritten(ctx context.Context, first, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch write failed",
			"first", first,
			"count", count,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "batch written",
		"first", first,
		"count", count,
	)
}

// LogRunCompleted logs the totals of a run.
func (l *Logger) LogRunCompleted(ctx context.Context, records, written, skipped int) {
	if skipped > 0 {
		l.WarnContext(ctx, "run completed with skipped records",
			"records", records,
			"written", written,
			"skipped", skipped,
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"records", records,
		"written", written,
	)
}

// Badger adapts the logger to badger.Logger. Badger's info output is chatty,
// so it is logged at debug level.
func (l *Logger) Badger() *BadgerLogger {
	return &BadgerLogger{l: l.Logger.With("component", "badger")}
}

// BadgerLogger implements badger.Logger.
type BadgerLogger struct {
	l *slog.Logger
}

func (b *BadgerLogger) Errorf(format string, args ...any) {
	b.l.Error(trim(format, args))
}

func (b *BadgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(trim(format, args))
}

func (b *BadgerLogger) Infof(format string, args ...any) {
	b.l.Debug(trim(format, args))
}

func (b *BadgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(trim(format, args))
}

func trim(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
