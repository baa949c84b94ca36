// Package callbacks decodes inline button data.
package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrEmptyPayload is returned when a button carries no payload.
var ErrEmptyPayload = errors.New("callbacks: empty payload")

// Parse splits callback data into action and payload. Buttons built with
// ReplyMarkup.Data arrive as "\f<action>|<payload>" unless telebot has
// already routed them, in which case Unique holds the action.
func Parse(cb *tele.Callback) (action, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	data, ok := strings.CutPrefix(cb.Data, "\f")
	if !ok {
		return "", cb.Data
	}
	action, payload, _ = strings.Cut(data, "|")
	return strings.TrimSpace(action), payload
}

// Action returns the action of the callback in c.
func Action(c tele.Context) string {
	action, _ := Parse(c.Callback())
	return action
}

// Payload returns the trimmed payload of the callback in c.
func Payload(c tele.Context) (string, error) {
	_, payload := Parse(c.Callback())
	if payload = strings.TrimSpace(payload); payload == "" {
		return "", ErrEmptyPayload
	}
	return payload, nil
}
