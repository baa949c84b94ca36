package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds that bypass the limit, see UpdateKind.
	Exclude []string
	// OnLimited answers a dropped update.
	OnLimited tele.HandlerFunc
	// Now overrides the clock in tests.
	Now func() time.Time
}

// UpdateKind names the kind of update in c the way exclusions spell it.
func UpdateKind(c tele.Context) string {
	u := c.Update()
	switch {
	case u.Callback != nil:
		return coreconfig.UpdateCallback
	case u.Message != nil:
		return coreconfig.UpdateMessage
	case u.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// RateLimit drops updates that follow the same user's previous one by less
// than Interval. Dropped updates do not move the window.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	skip := make(map[string]bool, len(opts.Exclude))
	for _, k := range opts.Exclude {
		skip[k] = true
	}
	w := &window{interval: opts.Interval, seen: make(map[int64]time.Time)}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil || opts.Interval <= 0 || skip[UpdateKind(c)] {
				return next(c)
			}
			if w.allow(u.ID, opts.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", UpdateKind(c)),
			)
			if opts.OnLimited == nil {
				return nil
			}
			return opts.OnLimited(c)
		}
	}
}

// window remembers when each user was last let through. Entries older than
// the interval are pruned once the map has doubled since the last prune.
type window struct {
	interval time.Duration
	mu       sync.Mutex
	seen     map[int64]time.Time
	pruneAt  int
}

func (w *window) allow(userID int64, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.seen[userID]; ok && now.Sub(last) < w.interval {
		return false
	}
	w.seen[userID] = now
	if len(w.seen) > max(w.pruneAt, 1024) {
		for id, t := range w.seen {
			if now.Sub(t) >= w.interval {
				delete(w.seen, id)
			}
		}
		w.pruneAt = 2 * len(w.seen)
	}
	return true
}
