package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/pager/core/telegram/format"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/core/telegram/keyboard"
	"github.com/m3rciful/pager/pager/model"

	tele "gopkg.in/telebot.v4"
)

// Start greets the user and offers the registration button.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, textGreeting, keyboard.ReplyButtons([]string{textRegister}))
}

// Profile shows the sender's player card.
func (h *Handlers) Profile(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()

	profile, err := h.players.Profile(ctx, u.ID)
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return tghelpers.SendText(c, textNotRegistered, keyboard.ReplyButtons([]string{textRegister}))
	case err != nil:
		return h.fail(c, "profile.load", err)
	}
	return tghelpers.SendMDV2(c, renderProfile(profile))
}

func renderProfile(p *model.Profile) string {
	games := make([]string, 0, len(p.Games))
	for _, g := range p.Games {
		games = append(games, "№"+strconv.FormatInt(g.GroupNumber, 10)+" "+format.DateOr(g.Date, model.GameDateLayout, "без даты"))
	}
	gamesLine := "нет"
	if len(games) > 0 {
		gamesLine = strings.Join(games, ", ")
	}
	username := ""
	if p.Player.Username != "" {
		username = format.Field("Telegram", "@"+p.Player.Username)
	}
	return format.Lines(
		"*"+format.MDV2(p.Player.Name)+"*",
		username,
		format.Field("Пачка", p.Player.GroupNumber),
		format.Field("Деньги", p.Money),
		format.Field("Предметы", len(p.Items)),
		format.Field("Игры", gamesLine),
	)
}
