package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/core/telegram/keyboard"
	"github.com/m3rciful/pager/core/telegram/state"
	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/service"

	tele "gopkg.in/telebot.v4"
)

// Registration steps.
const (
	StateGroupNumber state.State = "register.group_number"
	StateNickname    state.State = "register.nickname"
)

// CallbackCancel is the unique key of the inline cancel button.
const CallbackCancel = "register_cancel"

// Session fields collected during registration.
const (
	keyTelegramID  = "telegram_id"
	keyUsername    = "username"
	keyGroupNumber = "number_group"
	keyNickname    = "nickname"
)

// RegisterStart opens the registration conversation unless the sender already plays.
func (h *Handlers) RegisterStart(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()

	p, err := tghelpers.CurrentUser[*model.Player](ctx, h.players, u.ID)
	switch {
	case err == nil:
		return tghelpers.SendText(c, fmt.Sprintf(textAlreadyPlayer, p.Name), keyboard.RemoveKeyboard())
	case !errors.Is(err, model.ErrPlayerNotFound):
		return h.fail(c, "register.lookup", err)
	}

	if err := h.fsm.Reset(c); err != nil {
		return err
	}
	return h.askGroup(c, u)
}

func (h *Handlers) askGroup(c tele.Context, u *tele.User) error {
	err := h.fsm.Transition(c, StateGroupNumber, map[string]string{
		keyTelegramID: strconv.FormatInt(u.ID, 10),
		keyUsername:   u.Username,
	})
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, textAskGroup, keyboard.Cancel(CallbackCancel, ""))
}

// GroupNumber accepts the group number; invalid input keeps the conversation on this step.
func (h *Handlers) GroupNumber(c tele.Context) error {
	n, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || n <= 0 {
		logger.LogEvent(tghelpers.BuildContext(c), logger.FSM, slog.LevelDebug, "register.group_invalid",
			slog.String("state", string(StateGroupNumber)),
			slog.String("payload", logger.SanitizeLimit(c.Text(), 32)),
		)
		return tghelpers.SendText(c, textAskGroupAgain, keyboard.Cancel(CallbackCancel, ""))
	}
	if err := h.fsm.Transition(c, StateNickname, map[string]string{
		keyGroupNumber: strconv.FormatInt(n, 10),
	}); err != nil {
		return err
	}
	return tghelpers.SendText(c, textAskNickname, keyboard.Cancel(CallbackCancel, ""))
}

// Nickname completes registration. The session is cleared whatever the outcome,
// except when the conversation restarts or the nickname is re-asked.
func (h *Handlers) Nickname(c tele.Context) (err error) {
	u := c.Sender()
	if u == nil {
		return nil
	}
	session, err := h.fsm.Session(c)
	if err != nil {
		return err
	}
	nickname := strings.TrimSpace(c.Text())
	tgID, hasID := session.Int64(keyTelegramID)
	group, hasGroup := session.Int64(keyGroupNumber)

	if !hasID || !hasGroup || nickname == "" {
		if err := tghelpers.SendText(c, fmt.Sprintf(textMissingData, fullName(u))); err != nil {
			return err
		}
		if err := h.fsm.Reset(c); err != nil {
			return err
		}
		return h.askGroup(c, u)
	}
	if service.ValidateName(nickname) != nil {
		return tghelpers.SendText(c, textNicknameTooLong, keyboard.Cancel(CallbackCancel, ""))
	}

	defer func() { err = errors.Join(err, h.fsm.Reset(c)) }()
	if err := h.fsm.Transition(c, StateNickname, map[string]string{keyNickname: nickname}); err != nil {
		return err
	}
	if err := tghelpers.SendText(c, fmt.Sprintf(textWelcome, nickname), keyboard.RemoveKeyboard()); err != nil {
		return err
	}

	username, _ := session.Value(keyUsername)
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	if _, err := h.players.Register(ctx, tgID, username, nickname, group); err != nil {
		if errors.Is(err, model.ErrPlayerExists) {
			return tghelpers.SendText(c, fmt.Sprintf(textAlreadyPlayer, nickname))
		}
		logger.LogEvent(ctx, logger.FSM, slog.LevelError, "register.persist",
			slog.String("status", "fail"),
			slog.Int64("tg_id", tgID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, fmt.Sprintf(textRegisterFailed, fullName(u)))
	}
	return nil
}

// Cancel aborts the registration conversation from a command or the inline button.
func (h *Handlers) Cancel(c tele.Context) error {
	session, err := h.fsm.Session(c)
	if err != nil {
		return err
	}
	if !session.Active() {
		return tghelpers.SendText(c, textNothingToCancel)
	}
	if err := h.fsm.Reset(c); err != nil {
		return err
	}
	return tghelpers.SendText(c, textCancelled, keyboard.RemoveKeyboard())
}
