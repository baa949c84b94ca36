package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

type replyStats struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// TrackReplies starts counting the replies sent for the update in c.
func TrackReplies(c tele.Context) {
	c.Set(keyReplies, &replyStats{})
}

// Replies returns how many replies were sent for the update and whether any
// carried a keyboard.
func Replies(c tele.Context) (int, bool) {
	s, ok := c.Get(keyReplies).(*replyStats)
	if !ok {
		return 0, false
	}
	return int(s.messages.Load()), s.keyboard.Load()
}

func noteReply(c tele.Context, keyboard bool) {
	s, ok := c.Get(keyReplies).(*replyStats)
	if !ok {
		return
	}
	s.messages.Add(1)
	if keyboard {
		s.keyboard.Store(true)
	}
}
