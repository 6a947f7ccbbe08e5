package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands, their aliases and callback handlers.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	aliases          map[string]string
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry that answers unknown callbacks with a toast.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Действие больше недоступно"})
		},
	}
}

// RegisterCommand adds a slash command. Invalid or duplicate registrations are rejected.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if !strings.HasPrefix(name, "/") || cmd.Handler == nil || cmd.Description == "" {
		return r.skip("register.command.skip", name, "invalid")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return r.skip("register.command.skip", name, "duplicate")
	}
	for _, alias := range cmd.Aliases {
		key := aliasKey(alias)
		if owner, taken := r.aliases[key]; taken || key == "" {
			return r.skip("register.command.skip", name, "alias_taken:"+owner)
		}
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[aliasKey(alias)] = name
	}
	return nil
}

func (r *Registry) skip(event, name, reason string) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("event", event),
		slog.String("name", name),
		slog.String("reason", reason),
	)
	return fmt.Errorf("telegram: cannot register %q: %s", name, reason)
}

func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LookupCommand resolves a command name, a slash alias or a plain-text alias
// (e.g. a reply keyboard label) to the canonical command.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	name := text
	if strings.HasPrefix(name, "/") {
		name, _, _ = strings.Cut(name, " ")
		name, _, _ = strings.Cut(name, "@")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for _, candidate := range []string{name, text} {
		if key, ok := r.aliases[aliasKey(candidate)]; ok {
			return key, r.commands[key], true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a snapshot of registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// MenuCommands lists commands for the Telegram menu, hiding admin and hidden ones.
func (r *Registry) MenuCommands() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.Hidden || cmd.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// RegisterCallback maps an inline button unique key to its handler.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) error {
	if key == "" || h == nil {
		return r.skip("register.callback.skip", key, "invalid")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return r.skip("register.callback.skip", key, "duplicate")
	}
	r.callbacks[key] = h
	return nil
}

// Callback returns the handler registered for key.
func (r *Registry) Callback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// CallbackKeys returns registered callback keys in order.
func (r *Registry) CallbackKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text matching no command or conversation.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the handler for unmatched text.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// CommandSetter is the part of tele.Bot used to publish the command menu.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// InitBotCommands publishes the menu commands to Telegram.
func InitBotCommands(bot CommandSetter, reg *Registry) error {
	cmds := reg.MenuCommands()
	if err := bot.SetCommands(cmds); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands",
			slog.String("event", "register.commands"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands",
		slog.String("event", "register.commands"),
		slog.String("status", "ok"),
		slog.Int("count", len(cmds)),
	)
	return nil
}
