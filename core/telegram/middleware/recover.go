package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
)

// Recover turns a handler panic into an error so one bad update cannot stop
// the bot.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err = fmt.Errorf("telegram: handler panic: %v", r)
			logger.Error(tghelpers.BuildContext(c), "tg", "panic",
				slog.String("err", logger.SanitizeLimit(fmt.Sprint(r), 256)),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
