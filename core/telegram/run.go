// Package telegram runs a telebot bot with the shared middleware, routing and
// outbound delivery used by every handler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/netutil"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/sender"
)

// Middleware is a named global middleware.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint such as "/start" or
// tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	Sender   sender.Options

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a registered webhook in long-poll mode.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to the lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *sender.Dispatcher
	Registry   *Registry
}

// RunTelegram serves updates until ctx is cancelled. Cancellation is a clean
// stop and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}

	disp := sender.NewDispatcher(opts.Sender)
	tghelpers.SetDispatcher(disp)
	defer func() {
		tghelpers.SetDispatcher(nil)
		disp.Close()
	}()

	wire(ctx, bot, opts)
	if opts.Config.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.KeepWebhook {
		dropWebhook(ctx, bot)
	}

	rt := Runtime{Bot: bot, Dispatcher: disp, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	serve(ctx, bot)

	sent, failed := disp.Stats()
	logger.Info(ctx, "tg", "stopped",
		slog.Uint64("sent", sent),
		slog.Uint64("failed", failed),
	)
	if opts.OnStop != nil {
		return opts.OnStop(ctx, rt)
	}
	return nil
}

func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	start := time.Now()
	poller := BuildPoller(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(),
		OnError: onError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %s", netutil.Redact(err))
	}

	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.String("bot", bot.Me.Username),
		slog.Duration("duration", logger.Took(start)),
	}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs, slog.String("listen", p.Listen), slog.String("public_url", p.Endpoint.PublicURL))
	case *tele.LongPoller:
		attrs = append(attrs, slog.Duration("poll_timeout", p.Timeout))
	}
	logger.Info(ctx, "tg", "bot.ready", attrs...)
	return bot, nil
}

// onError receives handler errors that escaped the route summary.
func onError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error",
		slog.String("err", logger.SanitizeLimit(netutil.Redact(err), 256)),
		slog.String("err_code", string(netutil.Classify(err))),
	)
}

func wire(ctx context.Context, bot *tele.Bot, opts RunOptions) {
	var names []string
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
			names = append(names, mw.Name)
		}
	}
	routes := 0
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
			routes++
		}
	}

	menu := opts.Registry.Menu()
	if err := bot.SetCommands(menu); err != nil {
		logger.Warn(ctx, "tg.wire", "commands.publish",
			slog.String("status", "fail"),
			slog.String("err", netutil.Redact(err)),
		)
	}
	summary, _ := logger.SummarizeStrings(names, 8)
	logger.Info(ctx, "tg.wire", "complete",
		slog.String("middlewares", summary),
		slog.Int("routes", routes),
		slog.Int("commands", len(opts.Registry.CommandNames())),
		slog.Int("menu", len(menu)),
		slog.Int("callbacks", len(opts.Registry.CallbackActions())),
	)
}

// dropWebhook clears a webhook left by an earlier deployment; Telegram
// refuses getUpdates while one is set.
func dropWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(); err != nil {
		logger.Warn(ctx, "tg", "webhook.remove",
			slog.String("status", "fail"),
			slog.String("err", netutil.Redact(err)),
		)
		return
	}
	logger.Debug(ctx, "tg", "webhook.remove", slog.String("status", "ok"))
}

func serve(ctx context.Context, bot *tele.Bot) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}
}
