// Package helpers carries per-update context and reply plumbing shared by
// handlers and middleware.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

const (
	keyContext = "tg.ctx"
	keyReplies = "tg.replies"
)

// BuildContext returns the logging context of the update in c, creating and
// caching it on first use. It carries the rid and the update, user and chat
// ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(keyContext).(context.Context); ok {
		return ctx
	}
	var userID, chatID int64
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	c.Set(keyContext, ctx)
	return ctx
}

// WithHandler tags the update's context with the serving handler's name.
func WithHandler(c tele.Context, name string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), name)
	c.Set(keyContext, ctx)
	return ctx
}
