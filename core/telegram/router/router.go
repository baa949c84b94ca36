// Package router turns a Registry into telebot routes and logs one summary
// line per handled update.
package router

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/12farit21/nosql-telegram-bot/core/telegram"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/callbacks"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/middleware"
)

// FSM owns multi-step conversations. Messages from a user with a pending
// step go to ManagerHandler before anything else.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// Fallbacks answer updates no route claims.
type Fallbacks interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
}

// Options configures Routes.
type Options struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
	FSM           FSM
	Fallbacks     Fallbacks
}

// Routes returns one route per registered command plus the shared callback,
// text and document routes.
func Routes(reg *tg.Registry, opts Options) []tg.Route {
	var routes []tg.Route
	for _, name := range reg.CommandNames() {
		_, cmd, _ := reg.Lookup(name)
		h := cmd.Handler
		if cmd.AdminOnly {
			h = middleware.AdminOnly(opts.AdminID, opts.OnAdminReject)(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: observed(handlerName(name), h)})
	}
	return append(routes,
		tg.Route{Endpoint: tele.OnCallback, Handler: callbackRoute(reg)},
		tg.Route{Endpoint: tele.OnText, Handler: textRoute(reg, opts)},
		tg.Route{Endpoint: tele.OnDocument, Handler: documentRoute(opts)},
	)
}

func callbackRoute(reg *tg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		action := callbacks.Action(c)
		h, ok := reg.Callback(action)
		if !ok {
			return observe(c, "callback.unknown", reg.CallbackNotFound(), withKey(action), withReason("not_found"))
		}
		// Stop the client spinner before the handler runs; handlers that want
		// a toast call Respond themselves.
		_ = c.Respond()
		return observe(c, "callback."+handlerName(action), h, withKey(action))
	}
}

func textRoute(reg *tg.Registry, opts Options) tele.HandlerFunc {
	return func(c tele.Context) error {
		if inProgress(c, opts.FSM) {
			return observe(c, "fsm", opts.FSM.ManagerHandler)
		}
		if text := c.Text(); strings.HasPrefix(text, "/") {
			if name, cmd, ok := reg.Lookup(text); ok && !cmd.AdminOnly {
				return observe(c, handlerName(name), cmd.Handler)
			}
		}
		if fb := reg.TextFallback(); fb != nil {
			return observe(c, "fallback", fb)
		}
		if opts.Fallbacks != nil {
			return observe(c, "unknown_text", opts.Fallbacks.UnknownText())
		}
		return observe(c, "unknown_text", nil)
	}
}

func documentRoute(opts Options) tele.HandlerFunc {
	return func(c tele.Context) error {
		if inProgress(c, opts.FSM) {
			return observe(c, "fsm_document", opts.FSM.ManagerHandler)
		}
		if opts.Fallbacks != nil {
			return observe(c, "unexpected_document", opts.Fallbacks.UnknownDocument())
		}
		return observe(c, "unexpected_document", nil)
	}
}

func inProgress(c tele.Context, fsm FSM) bool {
	u := c.Sender()
	return fsm != nil && u != nil && fsm.InProgress(u.ID)
}

func observed(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return observe(c, name, h)
	}
}
