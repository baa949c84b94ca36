// Package keyboard builds inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Action routes the press; Payload travels
// with it.
type Button struct {
	Text    string
	Action  string
	Payload string
}

// Inline lays rows out as an inline keyboard. Empty rows are skipped and
// no rows yields nil.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var lines []tele.Row
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make(tele.Row, len(row))
		for i, b := range row {
			line[i] = markup.Data(b.Text, b.Action, b.Payload)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil
	}
	markup.Inline(lines...)
	return markup
}
