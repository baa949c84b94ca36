package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		cb      *tele.Callback
		action  string
		payload string
	}{
		{name: "filter", cb: &tele.Callback{Data: "\ffilter|Город"}, action: "filter", payload: "Город"},
		{name: "no payload", cb: &tele.Callback{Data: "\fsearch"}, action: "search"},
		{name: "object id", cb: &tele.Callback{Data: "\fdelete|65a1f0c2e4b0a1b2c3d4e5f6"}, action: "delete", payload: "65a1f0c2e4b0a1b2c3d4e5f6"},
		{name: "pipe in payload", cb: &tele.Callback{Data: "\fx|a|b"}, action: "x", payload: "a|b"},
		{name: "routed", cb: &tele.Callback{Unique: "delete", Data: "42"}, action: "delete", payload: "42"},
		{name: "raw data", cb: &tele.Callback{Data: "legacy"}, payload: "legacy"},
		{name: "nil", cb: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, payload := Parse(tt.cb)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.payload, payload)
		})
	}
}
