// Package bot binds the dialogue engine to Telegram commands, callbacks and
// text messages.
package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	tg "github.com/12farit21/nosql-telegram-bot/core/telegram"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/callbacks"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/commands"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/keyboard"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/router"
	"github.com/12farit21/nosql-telegram-bot/internal/dialogue"
)

const (
	msgUnknownAction = "Неизвестное действие"
	msgUnknownDoc    = "Документы не поддерживаются. Отправьте текст."
	msgAdminOnly     = "Команда доступна только администратору."
	msgSessions      = "Активных сессий: %d"
)

// Sessions reports live dialogue sessions.
type Sessions interface {
	InProgress(userID int64) bool
	Len() int
}

var (
	_ router.FSM       = (*Bot)(nil)
	_ router.Fallbacks = (*Bot)(nil)
)

// Bot owns the Telegram handlers.
type Bot struct {
	engine   *dialogue.Engine
	sessions Sessions
	adminID  int64
}

// New builds a Bot.
func New(engine *dialogue.Engine, sessions Sessions, adminID int64) *Bot {
	return &Bot{engine: engine, sessions: sessions, adminID: adminID}
}

// Register adds commands and callbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start": {
			Handler:     b.onStart,
			Description: "Главное меню и сброс фильтров",
		},
		"/cancel": {
			Handler:     b.onCancel,
			Description: "Отменить текущее действие",
		},
		"/sessions": {
			Handler:     b.onSessions,
			Description: "Количество активных сессий",
			AdminOnly:   true,
			Hidden:      true,
		},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	cbs := map[string]tele.HandlerFunc{
		dialogue.ActionFilter:        b.onFilter,
		dialogue.ActionSearch:        b.action(b.engine.Search),
		dialogue.ActionClearFilters:  b.action(b.engine.ClearFilters),
		dialogue.ActionAddListing:    b.action(b.engine.StartListing),
		dialogue.ActionDeleteListing: b.action(b.engine.ChooseDelete),
		dialogue.ActionMyListings:    b.action(b.engine.MyListings),
		dialogue.ActionDelete:        b.onDelete,
		dialogue.ActionCancel:        b.action(b.engine.Cancel),
	}
	for key, h := range cbs {
		if err := reg.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	reg.SetTextFallback(b.onText)
	return nil
}

// Routes returns every route the bot serves.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	return router.Routes(reg, router.Options{
		AdminID: b.adminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, msgAdminOnly)
		},
		FSM:       b,
		Fallbacks: b,
	})
}

// InProgress reports whether the sender has a pending dialogue step.
func (b *Bot) InProgress(userID int64) bool {
	return b.sessions.InProgress(userID)
}

// ManagerHandler feeds the message into the pending dialogue step. Documents
// never answer a step; the step stays pending.
func (b *Bot) ManagerHandler(c tele.Context) error {
	if m := c.Message(); m != nil && m.Document != nil {
		return tghelpers.SendText(c, msgUnknownDoc)
	}
	return b.onText(c)
}

// UnknownText implements router.Fallbacks.
func (b *Bot) UnknownText() tele.HandlerFunc { return b.onText }

// UnknownDocument implements router.Fallbacks.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgUnknownDoc)
	}
}

// UnknownCallback answers presses of buttons the bot no longer serves.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: msgUnknownAction})
	}
}

func (b *Bot) onStart(c tele.Context) error {
	return b.run(c, b.engine.Start)
}

func (b *Bot) onCancel(c tele.Context) error {
	return b.run(c, b.engine.Cancel)
}

func (b *Bot) onSessions(c tele.Context) error {
	return tghelpers.SendText(c, fmt.Sprintf(msgSessions, b.sessions.Len()))
}

func (b *Bot) onText(c tele.Context) error {
	text := c.Text()
	return b.run(c, func(ctx context.Context, a dialogue.Actor) []dialogue.Reply {
		return b.engine.HandleText(ctx, a, text)
	})
}

func (b *Bot) onFilter(c tele.Context) error {
	key, err := callbacks.Payload(c)
	if err != nil {
		return err
	}
	return b.run(c, func(ctx context.Context, a dialogue.Actor) []dialogue.Reply {
		return b.engine.SelectFilter(ctx, a, key)
	})
}

func (b *Bot) onDelete(c tele.Context) error {
	id, err := callbacks.Payload(c)
	if err != nil {
		return err
	}
	return b.run(c, func(ctx context.Context, a dialogue.Actor) []dialogue.Reply {
		return b.engine.Delete(ctx, a, id)
	})
}

func (b *Bot) action(op func(context.Context, dialogue.Actor) []dialogue.Reply) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.run(c, op)
	}
}

func (b *Bot) run(c tele.Context, op func(context.Context, dialogue.Actor) []dialogue.Reply) error {
	ctx := tghelpers.BuildContext(c)
	a := actorFrom(c)
	for _, r := range op(ctx, a) {
		if err := send(c, r); err != nil {
			return err
		}
	}
	return nil
}

func actorFrom(c tele.Context) dialogue.Actor {
	var a dialogue.Actor
	if u := c.Sender(); u != nil {
		a.UserID = u.ID
		a.Username = u.Username
	}
	if ch := c.Chat(); ch != nil {
		a.ChatID = ch.ID
	}
	return a
}

func send(c tele.Context, r dialogue.Reply) error {
	markup := Markup(r.Keyboard)
	if r.Markdown {
		return tghelpers.SendMDV2(c, r.Text, markup)
	}
	if markup == nil {
		return tghelpers.SendText(c, r.Text)
	}
	return tghelpers.SendText(c, r.Text, &tele.SendOptions{ReplyMarkup: markup})
}

// Markup converts a keyboard descriptor into inline markup.
func Markup(kb *dialogue.Keyboard) *tele.ReplyMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]keyboard.Button, len(kb.Rows))
	for i, row := range kb.Rows {
		rows[i] = make([]keyboard.Button, len(row))
		for j, btn := range row {
			rows[i][j] = keyboard.Button{Text: btn.Text, Action: btn.Action, Payload: btn.Payload}
		}
	}
	return keyboard.Inline(rows...)
}
