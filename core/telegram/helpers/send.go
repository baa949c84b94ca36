package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes replies through d; nil sends them inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// SendText replies with plain text.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var opt *tele.SendOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	return deliver(c, "send.text", opt != nil && opt.ReplyMarkup != nil, func() error {
		if opt == nil {
			return c.Send(text)
		}
		return c.Send(text, opt)
	})
}

// SendMDV2 replies with MarkdownV2 text. Link previews are off so result
// lists stay compact.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opt := &tele.SendOptions{ParseMode: tele.ModeMarkdownV2, DisableWebPagePreview: true}
	if len(markup) > 0 {
		opt.ReplyMarkup = markup[0]
	}
	return SendText(c, text, opt)
}

// deliver queues run on the dispatcher. A full or closed queue degrades to
// sending inline.
func deliver(c tele.Context, action string, keyboard bool, run func() error) error {
	noteReply(c, keyboard)
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "send.inline",
			slog.String("action", action),
			slog.String("cause", err.Error()),
		)
		return run()
	}
	return err
}
