// Package logger provides the bot's structured slog setup and the
// context-aware helpers used to emit component events.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/lmittmann/tint"

	"github.com/12farit21/nosql-telegram-bot/core/buildinfo"
	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
)

var (
	initOnce sync.Once

	shutdownMu sync.Mutex
	shutDown   bool
	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar      slog.LevelVar
	debugSampler  = newRatioSampler(1, 50)
	traceOverride bool

	// L is the root logger; prefer the context helpers in new code.
	L *slog.Logger
)

// InitLogger installs the global logger. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = install(cfg) })
	return err
}

func install(cfg *coreconfig.Config) error {
	levelVar.Set(selectLevel(cfg))
	debugSampler.Set(parseDebugSample(cfg))
	traceOverride = detectTraceFlag()

	outputs, closers := buildOutputs(cfg)
	logWriter = newAsyncWriter(outputs, 64*1024)
	logClosers = closers

	var handler slog.Handler
	switch format := selectFormat(cfg); format {
	case formatPretty:
		handler = tint.NewHandler(logWriter, &tint.Options{
			Level:      &levelVar,
			TimeFormat: "15:04:05.000",
		})
	default:
		sink, err := buildFluentSink(cfg)
		if err != nil {
			log.Printf("logger: fluent sink disabled: %v", err)
		}
		if sink != nil {
			logClosers = append(logClosers, sink)
		}
		handler = newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   format,
			keyOrder: selectKeyOrder(cfg),
			fluent:   sink,
		})
	}

	L = slog.New(handler)
	slog.SetDefault(L)

	logStartup(cfg)
	return nil
}

func logStartup(cfg *coreconfig.Config) {
	version, commit, date := buildinfo.Resolve()
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", version),
		slog.String("build_commit", commit),
		slog.String("build_time", date),
	}
	if cfg != nil {
		attrs = append(attrs,
			slog.String("cfg_profile", selectProfile(cfg)),
			slog.String("driver", cfg.Storage.Driver),
			slog.String("mode", cfg.Telegram.RunMode),
		)
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// Shutdown flushes buffered output and closes the sinks. Later calls are no-ops.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutDown {
		return nil
	}
	shutDown = true

	var errs []error
	if logWriter != nil {
		errs = append(errs, logWriter.Flush(), logWriter.Close())
	}
	for _, c := range logClosers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// LogEvent writes event at level through logg, falling back to the context
// logger and then L. Nothing is written before InitLogger.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs event for component at level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

// Debug logs a debug-level event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug detail should be
// logged. TRACE=1 or LOG_TRACE=1 lets everything through.
func ShouldSampleDebug() bool {
	return traceOverride || debugSampler.Allow()
}
