package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/pager/core/telegram/commands"
	"github.com/m3rciful/pager/core/telegram/format"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/pager/model"

	tele "gopkg.in/telebot.v4"
)

func (h *Handlers) adminCommands() map[string]commands.Command {
	admin := func(handler func(tele.Context, []string) error, minArgs int, desc, usage string) commands.Command {
		return commands.Command{
			Handler: func(c tele.Context) error {
				args := strings.Fields(c.Data())
				if len(args) < minArgs {
					return tghelpers.SendText(c, "Использование: "+usage)
				}
				return handler(c, args)
			},
			Description: desc,
			Usage:       usage,
			AdminOnly:   true,
			Hidden:      true,
		}
	}
	return map[string]commands.Command{
		"/credit":      admin(h.credit, 2, "Начислить деньги", "/credit <имя> <сумма>"),
		"/debit":       admin(h.debit, 2, "Списать деньги", "/debit <имя> <сумма>"),
		"/balance":     admin(h.balance, 1, "Баланс игрока", "/balance <имя>"),
		"/item":        admin(h.item, 3, "Выдать предмет", "/item <имя> <цена> <название> [| описание]"),
		"/photo":       admin(h.photo, 2, "Добавить фото", "/photo <имя> <url>"),
		"/photos":      admin(h.photos, 1, "Фото игрока", "/photos <имя>"),
		"/photo_clear": admin(h.photoClear, 1, "Удалить фото игрока", "/photo_clear <имя>"),
		"/game_new":    admin(h.gameNew, 1, "Создать игру", "/game_new <пачка> [ДД.ММ.ГГГГ]"),
		"/game_date":   admin(h.gameDate, 2, "Назначить дату игры", "/game_date <пачка> <ДД.ММ.ГГГГ>"),
		"/game":        admin(h.game, 1, "Игра пачки", "/game <пачка>"),
	}
}

func (h *Handlers) credit(c tele.Context, args []string) error {
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return h.reply(c, "money.credit", model.ErrInvalidAmount)
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	money, err := h.players.Credit(ctx, args[0], amount)
	if err != nil {
		return h.reply(c, "money.credit", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("%s: +%d, баланс %d", args[0], amount, money))
}

func (h *Handlers) debit(c tele.Context, args []string) error {
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return h.reply(c, "money.debit", model.ErrInvalidAmount)
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	money, err := h.players.Debit(ctx, args[0], amount)
	if err != nil {
		return h.reply(c, "money.debit", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("%s: -%d, баланс %d", args[0], amount, money))
}

func (h *Handlers) balance(c tele.Context, args []string) error {
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	money, err := h.players.Balance(ctx, args[0])
	if err != nil {
		return h.reply(c, "money.balance", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("%s: баланс %d", args[0], money))
}

// item parses "<name> <price> <title words...> [| description]".
func (h *Handlers) item(c tele.Context, args []string) error {
	price, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return h.reply(c, "item.add", model.ErrInvalidInput)
	}
	rest := strings.Join(args[2:], " ")
	title, desc, _ := strings.Cut(rest, "|")

	ctx, cancel := h.queryCtx(c)
	defer cancel()
	it, err := h.players.AddItem(ctx, args[0], model.Item{Title: title, Price: price, Description: desc})
	if err != nil {
		return h.reply(c, "item.add", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("%s получил «%s» (%d)", args[0], it.Title, it.Price))
}

func (h *Handlers) photo(c tele.Context, args []string) error {
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	photos, err := h.players.AppendPhoto(ctx, args[0], args[1])
	if err != nil {
		return h.reply(c, "photo.append", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("%s: фото %d", args[0], len(photos)))
}

func (h *Handlers) photos(c tele.Context, args []string) error {
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	photos, err := h.players.Photos(ctx, args[0])
	if err != nil {
		return h.reply(c, "photo.list", err)
	}
	if len(photos) == 0 {
		return tghelpers.SendText(c, args[0]+": фото нет")
	}
	return tghelpers.SendText(c, args[0]+":\n"+strings.Join(photos, "\n"))
}

func (h *Handlers) photoClear(c tele.Context, args []string) error {
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	if err := h.players.ClearPhotos(ctx, args[0]); err != nil {
		return h.reply(c, "photo.clear", err)
	}
	return tghelpers.SendText(c, args[0]+": фото удалены")
}

func (h *Handlers) gameNew(c tele.Context, args []string) error {
	group, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.reply(c, "game.create", model.ErrInvalidInput)
	}
	date := ""
	if len(args) > 1 {
		date = args[1]
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	g, err := h.games.Create(ctx, group, date, 0)
	if err != nil {
		return h.reply(c, "game.create", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Игра #%d для пачки %d, дата: %s",
		g.ID, g.GroupNumber, format.DateOr(g.Date, model.GameDateLayout, "не назначена")))
}

func (h *Handlers) gameDate(c tele.Context, args []string) error {
	group, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.reply(c, "game.date", model.ErrInvalidInput)
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	d, err := h.games.SetDate(ctx, group, args[1])
	if err != nil {
		return h.reply(c, "game.date", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Пачка %d играет %s", group, d.Format(model.GameDateLayout)))
}

func (h *Handlers) game(c tele.Context, args []string) error {
	group, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.reply(c, "game.get", model.ErrInvalidInput)
	}
	ctx, cancel := h.queryCtx(c)
	defer cancel()
	g, err := h.games.ByGroup(ctx, group)
	if err != nil {
		return h.reply(c, "game.get", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Игра #%d для пачки %d, дата: %s",
		g.ID, g.GroupNumber, format.DateOr(g.Date, model.GameDateLayout, "не назначена")))
}

// reply turns domain errors into chat answers; anything else is reported as internal.
func (h *Handlers) reply(c tele.Context, event string, err error) error {
	var text string
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		text = "Игрок не найден."
	case errors.Is(err, model.ErrInventoryNotFound):
		text = "У игрока нет инвентаря."
	case errors.Is(err, model.ErrGameNotFound):
		text = "Игра для этой пачки не найдена."
	case errors.Is(err, model.ErrInsufficientFunds):
		text = "Недостаточно денег."
	case errors.Is(err, model.ErrInvalidAmount):
		text = "Сумма должна быть целым числом больше нуля."
	case errors.Is(err, model.ErrInvalidDate):
		text = "Дата должна быть в формате ДД.ММ.ГГГГ."
	case errors.Is(err, model.ErrInvalidInput):
		text = "Неверные данные."
	default:
		return h.fail(c, event, err)
	}
	return tghelpers.SendText(c, text)
}
