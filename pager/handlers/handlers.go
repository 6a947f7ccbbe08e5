// Package handlers implements the game bot's Telegram commands and the registration conversation.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/pager/core/logger"
	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/commands"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/core/telegram/state"
	"github.com/m3rciful/pager/pager/service"

	tele "gopkg.in/telebot.v4"
)

const defaultQueryTimeout = 5 * time.Second

// Deps are the collaborators the handlers need.
type Deps struct {
	Players *service.Players
	Games   *service.Games
	Machine *state.Machine
	// QueryTimeout bounds every storage call made while handling one update.
	QueryTimeout time.Duration
}

// Handlers groups the bot's update handlers.
type Handlers struct {
	players *service.Players
	games   *service.Games
	fsm     *state.Machine
	timeout time.Duration
}

// New builds Handlers. A non-positive QueryTimeout selects the default.
func New(deps Deps) (*Handlers, error) {
	if deps.Players == nil || deps.Games == nil || deps.Machine == nil {
		return nil, errors.New("handlers: players, games and machine are required")
	}
	timeout := deps.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Handlers{players: deps.Players, games: deps.Games, fsm: deps.Machine, timeout: timeout}, nil
}

// Register binds commands, callbacks and conversation steps.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start": {
			Handler:     h.Start,
			Description: "Начать",
		},
		"/register": {
			Handler:     h.RegisterStart,
			Description: "Зарегистрироваться в игре",
			Aliases:     []string{textRegister},
		},
		"/cancel": {
			Handler:     h.Cancel,
			Description: "Отменить регистрацию",
		},
		"/profile": {
			Handler:     h.Profile,
			Description: "Мой профиль",
		},
	}
	for name, cmd := range h.adminCommands() {
		cmds[name] = cmd
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(CallbackCancel, h.Cancel); err != nil {
		return err
	}

	h.fsm.Handle(StateGroupNumber, h.GroupNumber)
	h.fsm.Handle(StateNickname, h.Nickname)
	return nil
}

// queryCtx derives a storage context bounded by the configured timeout from the update context.
func (h *Handlers) queryCtx(c tele.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(tghelpers.BuildContext(c), h.timeout)
}

// fail logs an unexpected error and tells the user something broke.
func (h *Handlers) fail(c tele.Context, event string, err error) error {
	logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, event,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return tghelpers.SendText(c, textInternal)
}

func fullName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
