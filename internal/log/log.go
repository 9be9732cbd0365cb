// Package log builds the process slog logger and bridges cubby signals
// into it.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/cubby"
)

// Config selects the handler. Format is "json" (default) or "text".
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParseLevel maps debug, info, warn and error onto slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w, or stdout when w is nil.
func New(cfg Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Bridge writes one record per cubby signal. Failures log at ERROR,
// completions at DEBUG.
type Bridge struct {
	logger   *slog.Logger
	releases []func(context.Context)
	mu       sync.Mutex
}

// NewBridge hooks every cubby signal and logs it to logger.
func NewBridge(logger *slog.Logger) *Bridge {
	b := &Bridge{logger: logger}
	for _, info := range cubby.Signals {
		l := capitan.Hook(info.Signal, b.handle)
		b.releases = append(b.releases, func(ctx context.Context) {
			_ = l.Drain(ctx)
			l.Close()
		})
	}
	return b
}

// Close drains pending events and unhooks the bridge.
func (b *Bridge) Close(ctx context.Context) {
	b.mu.Lock()
	releases := b.releases
	b.releases = nil
	b.mu.Unlock()

	for _, release := range releases {
		release(ctx)
	}
}

func (b *Bridge) handle(ctx context.Context, e *capitan.Event) {
	info, ok := cubby.LookupSignal(e.Signal())
	if !ok {
		return
	}
	level := slog.LevelDebug
	if info.Failure {
		level = slog.LevelError
	}
	if !b.logger.Enabled(ctx, level) {
		return
	}
	b.logger.LogAttrs(ctx, level, info.Name, Attrs(info, e.Fields())...)
}

// Attrs converts the cubby fields present on an event into slog attributes.
func Attrs(info cubby.SignalInfo, fields []capitan.Field) []slog.Attr {
	attrs := []slog.Attr{slog.String("operation", info.Operation)}

	for _, f := range []struct {
		name string
		key  capitan.StringKey
	}{
		{"key", cubby.FieldKey},
		{"destination", cubby.FieldDestination},
		{"path", cubby.FieldPath},
		{"method", cubby.FieldMethod},
	} {
		if v := f.key.ExtractFromFields(fields); v != "" {
			attrs = append(attrs, slog.String(f.name, v))
		}
	}
	if d := cubby.FieldDuration.ExtractFromFields(fields); d > 0 {
		attrs = append(attrs, slog.Duration("duration", d))
	}
	if n := cubby.FieldSize.ExtractFromFields(fields); n != 0 {
		attrs = append(attrs, slog.Int64("size", n))
	}
	if info.Operation == "list" {
		attrs = append(attrs,
			slog.Int("folders", cubby.FieldFolders.ExtractFromFields(fields)),
			slog.Int("files", cubby.FieldFiles.ExtractFromFields(fields)),
		)
	}
	if err := cubby.FieldError.ExtractFromFields(fields); err != nil {
		attrs = append(attrs,
			slog.String("error", err.Error()),
			slog.String("kind", cubby.KindOf(err).String()),
		)
	}
	return attrs
}
