package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/commands"
)

var (
	// ErrInvalidRoute rejects a registration with a missing name or handler.
	ErrInvalidRoute = errors.New("telegram: invalid registration")
	// ErrDuplicateRoute rejects a second registration under the same key.
	ErrDuplicateRoute = errors.New("telegram: already registered")
)

// Registry collects the commands and callback actions a bot serves.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry. Unknown callbacks are acknowledged
// silently until SetCallbackNotFound installs a handler.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond()
		},
	}
}

// RegisterCommand adds cmd under name, which is normalized to "/name".
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	key := commands.Name(name)
	if key == "" || cmd.Handler == nil || cmd.Description == "" {
		return r.reject("command", name, ErrInvalidRoute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.commands[key]; taken {
		return r.reject("command", key, ErrDuplicateRoute)
	}
	if _, taken := r.aliases[key]; taken {
		return r.reject("command", key, ErrDuplicateRoute)
	}
	r.commands[key] = cmd
	for _, alias := range cmd.Aliases {
		if a := commands.Name(alias); a != "" && a != key {
			r.aliases[a] = key
		}
	}
	return nil
}

// RegisterCallback binds an inline button action to h.
func (r *Registry) RegisterCallback(action string, h tele.HandlerFunc) error {
	if action == "" || h == nil {
		return r.reject("callback", action, ErrInvalidRoute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.callbacks[action]; taken {
		return r.reject("callback", action, ErrDuplicateRoute)
	}
	r.callbacks[action] = h
	return nil
}

func (r *Registry) reject(kind, name string, err error) error {
	logger.Warn(context.Background(), "tg.wire", "register.reject",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("cause", err.Error()),
	)
	return fmt.Errorf("%w: %s %q", err, kind, name)
}

// Lookup resolves user input to a registered command, following aliases.
func (r *Registry) Lookup(text string) (string, commands.Command, bool) {
	key := commands.Name(text)
	if key == "" {
		return "", commands.Command{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	cmd, ok := r.commands[key]
	return key, cmd, ok
}

// CommandNames lists registered commands in name order.
func (r *Registry) CommandNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.commands))
}

// Menu returns the listed commands in the form Telegram's setMyCommands takes.
func (r *Registry) Menu() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var menu []tele.Command
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		if cmd := r.commands[name]; cmd.Listed() {
			menu = append(menu, tele.Command{Text: name[1:], Description: cmd.Description})
		}
	}
	return menu
}

// Callback returns the handler bound to action.
func (r *Registry) Callback(action string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[action]
	return h, ok
}

// CallbackActions lists registered callback actions in order.
func (r *Registry) CallbackActions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound installs the handler for unregistered actions.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unregistered actions.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback installs the handler for text that is neither a command
// nor an answer to a pending step.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the handler set by SetTextFallback, if any.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}
