package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12farit21/nosql-telegram-bot/internal/dialogue"
)

func TestMarkupNil(t *testing.T) {
	assert.Nil(t, Markup(nil))
	assert.Nil(t, Markup(&dialogue.Keyboard{}))
}

func TestMarkupKeepsLayoutAndCallbackData(t *testing.T) {
	kb := &dialogue.Keyboard{Rows: [][]dialogue.Button{
		{{Text: "Комнаты", Action: dialogue.ActionFilter, Payload: "rooms"}},
		{{Text: "Поиск", Action: dialogue.ActionSearch}},
		{
			{Text: "A", Action: dialogue.ActionDelete, Payload: "65a1"},
			{Text: "Отмена", Action: dialogue.ActionCancel},
		},
	}}

	m := Markup(kb)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 3)
	require.Len(t, m.InlineKeyboard[2], 2)

	first := m.InlineKeyboard[0][0]
	assert.Equal(t, "Комнаты", first.Text)
	assert.Equal(t, dialogue.ActionFilter, first.Unique)
	assert.Equal(t, "rooms", first.Data)

	assert.Equal(t, dialogue.ActionSearch, m.InlineKeyboard[1][0].Unique)
	assert.Empty(t, m.InlineKeyboard[1][0].Data)

	del := m.InlineKeyboard[2][0]
	assert.Equal(t, dialogue.ActionDelete, del.Unique)
	assert.Equal(t, "65a1", del.Data)
}
