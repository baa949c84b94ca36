package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

func newContext(t *testing.T) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{
		ID: 5,
		Message: &tele.Message{
			Sender: &tele.User{ID: 7},
			Chat:   &tele.Chat{ID: 100},
			Text:   "hi",
		},
	})
}

func TestBuildContext(t *testing.T) {
	c := newContext(t)

	ctx := BuildContext(c)
	assert.Equal(t, "5:100:7", logger.RIDFrom(ctx))
	assert.Equal(t, 5, logger.UpdateIDFrom(ctx))
	assert.Equal(t, int64(7), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(100), logger.ChatIDFrom(ctx))

	tagged := WithHandler(c, "callback.search")
	assert.Equal(t, "callback.search", logger.HandlerFrom(tagged))
	assert.Equal(t, "callback.search", logger.HandlerFrom(BuildContext(c)), "handler is cached on the update")
}

func TestReplies(t *testing.T) {
	c := newContext(t)

	noteReply(c, true)
	n, kb := Replies(c)
	assert.Zero(t, n, "untracked updates are not counted")
	assert.False(t, kb)

	TrackReplies(c)
	noteReply(c, false)
	noteReply(c, true)
	noteReply(c, false)
	n, kb = Replies(c)
	assert.Equal(t, 3, n)
	assert.True(t, kb)
}
