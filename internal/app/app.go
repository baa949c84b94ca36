// Package app assembles the realty bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/bootstrap"
	corecmd "github.com/12farit21/nosql-telegram-bot/core/cmd"
	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
	tg "github.com/12farit21/nosql-telegram-bot/core/telegram"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/state"
	"github.com/12farit21/nosql-telegram-bot/internal/bot"
	"github.com/12farit21/nosql-telegram-bot/internal/catalog"
	"github.com/12farit21/nosql-telegram-bot/internal/dialogue"
	"github.com/12farit21/nosql-telegram-bot/internal/events"
	"github.com/12farit21/nosql-telegram-bot/internal/health"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/session"
	"github.com/12farit21/nosql-telegram-bot/internal/storage/memstore"
	"github.com/12farit21/nosql-telegram-bot/internal/storage/mongostore"
	"github.com/12farit21/nosql-telegram-bot/internal/storage/pgstore"
)

const msgRateLimited = "Слишком часто. Подождите немного."

// App holds the wired bot and its infrastructure.
type App struct {
	cfg       *coreconfig.Config
	infra     *bootstrap.Result
	publisher events.Publisher
	listings  *listing.Service
	sessions  *session.Store
	bot       *bot.Bot
	registry  *tg.Registry
}

var (
	_ corecmd.TelegramApp = (*App)(nil)
	_ corecmd.WorkerApp   = (*App)(nil)
	_ corecmd.Closer      = (*App)(nil)
)

// Bootstrap matches corecmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	return New(ctx, carrier.CoreConfig())
}

// New connects infrastructure and builds every component.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, infra: infra, publisher: events.Noop{}}
	if err := a.build(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Events.Enabled {
		pub, err := events.NewRabbit(a.cfg.Events)
		if err != nil {
			return fmt.Errorf("app: events: %w", err)
		}
		a.publisher = pub
	}

	a.listings, err = listing.NewService(repo, listing.WithPublisher(a.publisher))
	if err != nil {
		return fmt.Errorf("app: listings: %w", err)
	}

	cat, err := catalog.FromConfig(a.cfg.Catalog)
	if err != nil {
		return fmt.Errorf("app: catalog: %w", err)
	}

	mgr := state.NewMemoryManager(state.Options{
		IdleTTL:     a.cfg.Sessions.IdleTTL,
		MaxSessions: a.cfg.Sessions.MaxSessions,
		OnEvict: func(userID int64, reason string) {
			logger.Debug(context.Background(), "dialogue", "session.evict",
				slog.Int64("user_id", userID),
				slog.String("reason", reason),
			)
		},
	})
	a.sessions = session.New(mgr)

	engine := dialogue.New(cat, a.sessions, a.listings)
	a.bot = bot.New(engine, a.sessions, a.cfg.Telegram.AdminID)
	a.registry = tg.NewRegistry()
	return a.bot.Register(a.registry)
}

func (a *App) repository(ctx context.Context) (listing.Repository, error) {
	switch a.infra.Driver {
	case coreconfig.DriverMongo:
		store := mongostore.New(a.infra.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case coreconfig.DriverPostgres:
		return pgstore.New(a.infra.DB), nil
	case coreconfig.DriverMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("app: unknown storage driver %q", a.infra.Driver)
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	onLimited := func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: msgRateLimited})
		}
		return tghelpers.SendText(c, msgRateLimited)
	}
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, onLimited),
		Routes:      a.bot.Routes(a.registry),
	}, nil
}

// Workers implements corecmd.WorkerApp.
func (a *App) Workers() []corecmd.Worker {
	ws := []corecmd.Worker{{
		Name: "sessions.janitor",
		Run: func(ctx context.Context) error {
			return a.sessions.Janitor(ctx, a.cfg.Sessions.SweepInterval)
		},
	}}
	if a.cfg.Health.Listen != "" {
		ws = append(ws, corecmd.Worker{
			Name: "health",
			Run: func(ctx context.Context) error {
				return health.Serve(ctx, a.cfg.Health.Listen, a.listings)
			},
		})
	}
	return ws
}

// Close releases the publisher and store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.infra.Close(ctx))
	return errors.Join(errs...)
}
