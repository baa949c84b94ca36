// Package commands describes slash commands and normalizes their names.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command served by the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands answer only the configured admin.
	AdminOnly bool
	// Hidden commands work but stay out of the Telegram menu.
	Hidden  bool
	Aliases []string
}

// Listed reports whether the command belongs in the public menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// Name turns user input such as "Start", "/start" or "/start@RealtyBot arg"
// into the canonical "/start". It returns "" for blank input.
func Name(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	if name == "" {
		return ""
	}
	return "/" + name
}
