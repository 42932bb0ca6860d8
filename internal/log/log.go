// Package log installs the process-wide slog logger.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup sends JSON records to a rotating file at logFile. With debug set,
// records at debug level and above are also written to stderr.
func Setup(logFile string, debug bool, level string) {
	initOnce.Do(func() {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // Max size in MB
			MaxBackups: 0,  // Number of backups
			MaxAge:     30, // Days
			Compress:   false,
		}

		lvl := ParseLevel(level)
		if debug {
			lvl = slog.LevelDebug
		}

		var handler slog.Handler = slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: true,
		})
		if debug {
			handler = tee{handler, newConsoleHandler(os.Stderr)}
		}
		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// ParseLevel turns a config level name into a slog level. Unknown names are
// info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func newConsoleHandler(w io.Writer) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "vlist",
	})
}

// tee writes every record to both handlers.
type tee [2]slog.Handler

func (t tee) Enabled(ctx context.Context, l slog.Level) bool {
	return t[0].Enabled(ctx, l) || t[1].Enabled(ctx, l)
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee{t[0].WithAttrs(attrs), t[1].WithAttrs(attrs)}
}

func (t tee) WithGroup(name string) slog.Handler {
	return tee{t[0].WithGroup(name), t[1].WithGroup(name)}
}

// RecoverPanic logs a panic in the goroutine it is deferred in, writes the
// stack next to the log and runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		slog.Error("Panic recovered", "name", name, "panic", r)

		filename := fmt.Sprintf("vlist-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
		if f, err := os.Create(filename); err == nil {
			fmt.Fprintf(f, "Panic in %s: %v\n\n", name, r)
			fmt.Fprintf(f, "Time: %s\n\n", time.Now().Format(time.RFC3339))
			fmt.Fprintf(f, "Stack Trace:\n%s\n", debug.Stack())
			f.Close()
		}

		if cleanup != nil {
			cleanup()
		}
	}
}
