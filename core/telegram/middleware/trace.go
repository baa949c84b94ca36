package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/callbacks"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
)

// Trace builds the update's logging context, starts reply counting and logs
// a sampled debug line describing the update.
func Trace(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		tghelpers.TrackReplies(c)
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", describe(c)...)
		}
		return next(c)
	}
}

func describe(c tele.Context) []slog.Attr {
	var attrs []slog.Attr
	if ch := c.Chat(); ch != nil {
		attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	switch {
	case c.Callback() != nil:
		action, payload := callbacks.Parse(c.Callback())
		attrs = append(attrs,
			slog.String("kind", "callback"),
			slog.String("cb_key", logger.SanitizeLimit(action, 64)),
			slog.String("payload", logger.SanitizeLimit(payload, 128)),
		)
	case c.Message() != nil && c.Message().Document != nil:
		attrs = append(attrs, slog.String("kind", "document"))
	case c.Message() != nil:
		attrs = append(attrs,
			slog.String("kind", "message"),
			slog.Int("text_len", len([]rune(c.Text()))),
		)
	}
	return attrs
}
