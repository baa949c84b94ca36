package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
)

func testBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func message(b *tele.Bot, userID int64) tele.Context {
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Text:   "hi",
	}})
}

func callback(b *tele.Bot, userID int64) tele.Context {
	return b.NewContext(tele.Update{ID: 2, Callback: &tele.Callback{
		Sender: &tele.User{ID: userID},
		Data:   "\fsearch",
	}})
}

type calls struct{ ok, rejected int }

func (n *calls) next(tele.Context) error   { n.ok++; return nil }
func (n *calls) reject(tele.Context) error { n.rejected++; return nil }

func TestAdminOnly(t *testing.T) {
	b := testBot(t)
	tests := []struct {
		name    string
		adminID int64
		userID  int64
		ok      bool
	}{
		{name: "admin", adminID: 42, userID: 42, ok: true},
		{name: "stranger", adminID: 42, userID: 7},
		{name: "no admin configured", adminID: 0, userID: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n calls
			h := AdminOnly(tt.adminID, n.reject)(n.next)
			require.NoError(t, h(message(b, tt.userID)))
			assert.Equal(t, tt.ok, n.ok == 1)
			assert.Equal(t, !tt.ok, n.rejected == 1)
		})
	}
}

func TestRateLimit(t *testing.T) {
	b := testBot(t)
	now := time.Unix(0, 0)
	var n calls
	h := RateLimit(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   []string{coreconfig.UpdateCallback},
		OnLimited: n.reject,
		Now:       func() time.Time { return now },
	})(n.next)

	require.NoError(t, h(message(b, 1)))
	require.NoError(t, h(message(b, 1)))
	require.NoError(t, h(message(b, 2)))
	require.NoError(t, h(callback(b, 1)))
	assert.Equal(t, calls{ok: 3, rejected: 1}, n)

	now = now.Add(500 * time.Millisecond)
	require.NoError(t, h(message(b, 1)))
	assert.Equal(t, 2, n.rejected, "a dropped update does not move the window")

	now = now.Add(600 * time.Millisecond)
	require.NoError(t, h(message(b, 1)))
	assert.Equal(t, 4, n.ok)
}

func TestUpdateKind(t *testing.T) {
	b := testBot(t)
	assert.Equal(t, coreconfig.UpdateMessage, UpdateKind(message(b, 1)))
	assert.Equal(t, coreconfig.UpdateCallback, UpdateKind(callback(b, 1)))
	assert.Equal(t, "other", UpdateKind(b.NewContext(tele.Update{})))
}

func TestRecover(t *testing.T) {
	b := testBot(t)
	h := Recover(func(tele.Context) error { panic("boom") })
	err := h(message(b, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.Equal(t, want, Recover(func(tele.Context) error { return want })(message(b, 1)))
}

func TestTraceTracksReplies(t *testing.T) {
	b := testBot(t)
	c := callback(b, 9)
	require.NoError(t, Trace(func(c tele.Context) error {
		n, kb := tghelpers.Replies(c)
		assert.Zero(t, n)
		assert.False(t, kb)
		return nil
	})(c))
	assert.NotNil(t, c.Get("tg.replies"))
}
