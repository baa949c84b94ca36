package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/middleware"
)

// DefaultMiddlewares returns the global chain: panic recovery, tracing and,
// when rate_limit.interval_ms is set, per-user rate limiting.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "trace", Use: middleware.Trace},
	}
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return mws
	}
	return append(mws, Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimit(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:   cfg.RateLimit.ExcludeUpdates,
			OnLimited: onLimited,
		}),
	})
}
