package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
	coretelegram "github.com/12farit21/nosql-telegram-bot/core/telegram"
)

// ConfigCarrier is a loaded configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp supplies the bot wiring.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Worker is a long-running task started next to the bot. Run must return
// once ctx is done.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// WorkerApp is implemented by apps with background workers.
type WorkerApp interface {
	Workers() []Worker
}

// Closer is implemented by apps holding resources to release after shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// Options wire Run to an application.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the config path from opts, the environment or the
// default, in that order. An empty result means environment-only config.
func ResolveConfigPath(opts Options) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	return opts.DefaultConfigPath
}

// Run loads the config, bootstraps the app and serves the bot next to the
// app's workers until SIGINT or SIGTERM. Workers stop once the bot does.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer flushLogs(opts.ShutdownLogger)
	if c, ok := app.(Closer); ok {
		defer closeApp(c)
	}

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	announce(&runOpts, time.Now())

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	var workers []Worker
	if wa, ok := app.(WorkerApp); ok {
		workers = wa.Workers()
	}
	return runGroup(ctx, func(ctx context.Context) error { return run(ctx, runOpts) }, workers)
}

func loadConfig(opts Options) (ConfigCarrier, error) {
	path := ResolveConfigPath(opts)
	if path == "" {
		log.Printf("config: environment only")
	} else {
		log.Printf("config: %s", path)
	}
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return nil, errors.New("cmd: config has no core section")
	}
	return cfg, nil
}

// announce chains ready and shutdown log lines onto the app's own hooks.
func announce(opts *coretelegram.RunOptions, startedAt time.Time) {
	onStart, onStop := opts.OnStart, opts.OnStop
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup", logger.Took(startedAt)))
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown", slog.Duration("uptime", time.Since(startedAt).Round(time.Second)))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}

func closeApp(c Closer) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		logger.Warn(ctx, "app", "close", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
}

func flushLogs(shutdown func() error) {
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	if err := shutdown(); err != nil {
		log.Printf("logger shutdown: %v", err)
	}
}

// runGroup runs main and every worker under one errgroup. The group context
// is cancelled when main returns or any member fails.
func runGroup(ctx context.Context, main func(context.Context) error, workers []Worker) error {
	g, gctx := errgroup.WithContext(ctx)
	stop, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return main(stop)
	})
	for _, w := range workers {
		if w.Run == nil {
			continue
		}
		g.Go(func() error {
			if err := w.Run(stop); err != nil {
				return fmt.Errorf("worker %s: %w", w.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
