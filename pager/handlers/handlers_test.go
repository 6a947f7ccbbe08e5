package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/router"
	"github.com/m3rciful/pager/core/telegram/state"
	"github.com/m3rciful/pager/core/telegram/teletest"
	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/service"
	"github.com/m3rciful/pager/pager/storage/memory"
)

type fixture struct {
	h       *Handlers
	players *service.Players
	games   *service.Games
	mgr     state.Manager
	machine *state.Machine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	mgr := state.NewMemoryManager()
	f := fixture{
		players: service.NewPlayers(store),
		games:   service.NewGames(store),
		mgr:     mgr,
		machine: state.NewMachine(mgr),
	}
	h, err := New(Deps{Players: f.players, Games: f.games, Machine: f.machine})
	require.NoError(t, err)
	f.h = h
	f.h.fsm.Handle(StateGroupNumber, h.GroupNumber)
	f.h.fsm.Handle(StateNickname, h.Nickname)
	return f
}

func (f fixture) state(t *testing.T, userID int64) state.Session {
	t.Helper()
	s, err := f.mgr.Get(context.Background(), userID)
	require.NoError(t, err)
	return s
}

// say delivers a text message to the conversation and returns its context.
func (f fixture) say(t *testing.T, userID int64, text string) *teletest.Context {
	t.Helper()
	c := teletest.NewMessage(userID, text)
	require.True(t, f.machine.InProgress(c), "no conversation for %q", text)
	require.NoError(t, f.machine.Dispatch(c))
	return c
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRegistrationHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := teletest.NewMessage(1, textRegister)
	require.NoError(t, f.h.RegisterStart(c))
	assert.Equal(t, textAskGroup, c.Last().Text())
	assert.NotNil(t, c.Last().Markup())
	assert.Equal(t, StateGroupNumber, f.state(t, 1).State)

	c = f.say(t, 1, " 7 ")
	assert.Equal(t, textAskNickname, c.Last().Text())
	assert.Equal(t, StateNickname, f.state(t, 1).State)

	c = f.say(t, 1, "Neo")
	assert.Equal(t, "Окей, добро пожаловать в мрачный мир будущего Neo!", c.Last().Text())
	assert.False(t, f.state(t, 1).Active())

	p, err := f.players.ByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Neo", p.Name)
	assert.Equal(t, "user1", p.Username)
	assert.Equal(t, int64(7), p.GroupNumber)

	money, err := f.players.Balance(ctx, "Neo")
	require.NoError(t, err)
	assert.Zero(t, money)
}

func TestRegistrationRejectsBadGroupNumber(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.RegisterStart(teletest.NewMessage(1, textRegister)))

	for _, bad := range []string{"seven", "0", "-3", "7.5", ""} {
		c := f.say(t, 1, bad)
		assert.Equal(t, textAskGroupAgain, c.Last().Text(), bad)
		assert.Equal(t, StateGroupNumber, f.state(t, 1).State, bad)
	}

	_, err := f.players.ByTelegramID(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestRegistrationRestartsOnMissingData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mgr.Update(context.Background(), 1, StateNickname, map[string]string{keyTelegramID: "1"}))

	c := f.say(t, 1, "Neo")
	sent := c.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Братан Test! Ты слепой, данных не хватает! Давай по новой!", sent[0].Text())
	assert.Equal(t, textAskGroup, sent[1].Text())

	s := f.state(t, 1)
	assert.Equal(t, StateGroupNumber, s.State)
	_, hasGroup := s.Value(keyGroupNumber)
	assert.False(t, hasGroup)
	id, ok := s.Int64(keyTelegramID)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestRegistrationReasksLongNickname(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.RegisterStart(teletest.NewMessage(1, textRegister)))
	f.say(t, 1, "3")

	c := f.say(t, 1, strings.Repeat("x", model.MaxNameLength+1))
	assert.Equal(t, textNicknameTooLong, c.Last().Text())
	assert.Equal(t, StateNickname, f.state(t, 1).State)
}

func TestRegisterStartWhenAlreadyPlaying(t *testing.T) {
	f := newFixture(t)
	_, err := f.players.Register(context.Background(), 1, "neo", "Neo", 3)
	require.NoError(t, err)

	c := teletest.NewMessage(1, textRegister)
	require.NoError(t, f.h.RegisterStart(c))
	assert.Equal(t, "Ты уже в игре, Neo.", c.Last().Text())
	assert.False(t, f.state(t, 1).Active())
}

func TestRegistrationDuplicateClearsSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.RegisterStart(teletest.NewMessage(1, textRegister)))
	f.say(t, 1, "3")
	_, err := f.players.Register(context.Background(), 1, "neo", "Morpheus", 3)
	require.NoError(t, err)

	c := f.say(t, 1, "Neo")
	assert.Equal(t, "Ты уже в игре, Neo.", c.Last().Text())
	assert.False(t, f.state(t, 1).Active())
}

func TestCancel(t *testing.T) {
	f := newFixture(t)

	c := teletest.NewMessage(1, "/cancel")
	require.NoError(t, f.h.Cancel(c))
	assert.Equal(t, textNothingToCancel, c.Last().Text())

	require.NoError(t, f.h.RegisterStart(teletest.NewMessage(1, textRegister)))
	cb := teletest.NewCallback(1, CallbackCancel, "")
	require.NoError(t, f.h.Cancel(cb))
	assert.Equal(t, textCancelled, cb.Last().Text())
	assert.False(t, f.state(t, 1).Active())
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := teletest.NewMessage(1, "/profile")
	require.NoError(t, f.h.Profile(c))
	assert.Equal(t, textNotRegistered, c.Last().Text())

	_, err := f.players.Register(ctx, 1, "neo", "Neo_1", 3)
	require.NoError(t, err)
	_, err = f.players.Credit(ctx, "Neo_1", 15)
	require.NoError(t, err)
	_, err = f.games.Create(ctx, 3, "01.02.2025", 1)
	require.NoError(t, err)

	c = teletest.NewMessage(1, "/profile")
	require.NoError(t, f.h.Profile(c))
	text := c.Last().Text()
	assert.Contains(t, text, `*Neo\_1*`)
	assert.Contains(t, text, "*Деньги:* 15")
	assert.Contains(t, text, `№3 01\.02\.2025`)
	opts, ok := c.Last().Opts[0].(*tele.SendOptions)
	require.True(t, ok)
	assert.Equal(t, tele.ModeMarkdownV2, opts.ParseMode)
}

func TestAdminCommands(t *testing.T) {
	f := newFixture(t)
	_, err := f.players.Register(context.Background(), 1, "neo", "Neo", 3)
	require.NoError(t, err)
	cmds := f.h.adminCommands()

	cases := []struct {
		text string
		want string
	}{
		{"/credit Neo 50", "Neo: +50, баланс 50"},
		{"/debit Neo 20", "Neo: -20, баланс 30"},
		{"/debit Neo 100", "Недостаточно денег."},
		{"/credit Neo ten", "Сумма должна быть целым числом больше нуля."},
		{"/credit Neo -5", "Сумма должна быть целым числом больше нуля."},
		{"/credit Trinity 5", "Игрок не найден."},
		{"/credit", "Использование: /credit <имя> <сумма>"},
		{"/balance Neo", "Neo: баланс 30"},
		{"/item Neo 10 Magic spoon | bent", "Neo получил «Magic spoon» (10)"},
		{"/photo Neo https://img.example/1.jpg", "Neo: фото 1"},
		{"/photo Neo not-a-url", "Неверные данные."},
		{"/photos Neo", "Neo:\nhttps://img.example/1.jpg"},
		{"/photo_clear Neo", "Neo: фото удалены"},
		{"/photos Neo", "Neo: фото нет"},
		{"/game 4", "Игра для этой пачки не найдена."},
		{"/game_new 4", "Игра #1 для пачки 4, дата: не назначена"},
		{"/game_date 4 2025-01-01", "Дата должна быть в формате ДД.ММ.ГГГГ."},
		{"/game_date 4 09.03.2025", "Пачка 4 играет 09.03.2025"},
		{"/game 4", "Игра #1 для пачки 4, дата: 09.03.2025"},
	}
	for _, tc := range cases {
		name, _, _ := strings.Cut(tc.text, " ")
		cmd, ok := cmds[name]
		require.True(t, ok, name)
		assert.True(t, cmd.AdminOnly, name)

		c := teletest.NewMessage(99, tc.text)
		require.NoError(t, cmd.Handler(c), tc.text)
		assert.Equal(t, tc.want, c.Last().Text(), tc.text)
	}
}

func TestRegisterBindsRegistry(t *testing.T) {
	f := newFixture(t)
	reg := tg.NewRegistry()
	require.NoError(t, f.h.Register(reg))

	name, _, ok := reg.LookupCommand(textRegister)
	require.True(t, ok)
	assert.Equal(t, "/register", name)

	_, ok = reg.Callback(CallbackCancel)
	assert.True(t, ok)

	var menu []string
	for _, c := range reg.MenuCommands() {
		menu = append(menu, c.Text)
	}
	assert.ElementsMatch(t, []string{"start", "register", "cancel", "profile"}, menu)
}

// textRoute binds the handlers to a fresh registry and returns the free-text route.
func (f fixture) textRoute(t *testing.T) tele.HandlerFunc {
	t.Helper()
	reg := tg.NewRegistry()
	require.NoError(t, f.h.Register(reg))
	routes := router.MessageRoutes(f.machine, reg, router.MessageOptions{UnknownText: Fallbacks{}.UnknownText()})
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no text route")
	return nil
}

func TestConversationThroughMessageRoutes(t *testing.T) {
	f := newFixture(t)
	text := f.textRoute(t)

	for _, msg := range []string{textRegister, "5", "Trinity"} {
		require.NoError(t, text(teletest.NewMessage(2, msg)), msg)
	}
	p, err := f.players.ByTelegramID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Trinity", p.Name)
	assert.Equal(t, int64(5), p.GroupNumber)

	c := teletest.NewMessage(2, "hello")
	require.NoError(t, text(c))
	assert.Equal(t, textUnknownText, c.Last().Text())
}

func TestRegisterTextRestartsConversation(t *testing.T) {
	f := newFixture(t)
	text := f.textRoute(t)

	require.NoError(t, text(teletest.NewMessage(3, textRegister)))
	require.NoError(t, text(teletest.NewMessage(3, "5")))
	assert.Equal(t, StateNickname, f.state(t, 3).State)

	c := teletest.NewMessage(3, textRegister)
	require.NoError(t, text(c))
	assert.Equal(t, textAskGroup, c.Last().Text())
	assert.Equal(t, StateGroupNumber, f.state(t, 3).State)
	_, hasGroup := f.state(t, 3).Int64(keyGroupNumber)
	assert.False(t, hasGroup)

	_, err := f.players.ByTelegramID(context.Background(), 3)
	require.ErrorIs(t, err, model.ErrPlayerNotFound)

	for _, msg := range []string{"7", "Morpheus"} {
		require.NoError(t, text(teletest.NewMessage(3, msg)), msg)
	}
	p, err := f.players.ByTelegramID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Morpheus", p.Name)
	assert.Equal(t, int64(7), p.GroupNumber)
}

func TestInterleavedRegistrationsKeepSeparateSessions(t *testing.T) {
	f := newFixture(t)
	text := f.textRoute(t)

	steps := []struct {
		user int64
		msg  string
	}{
		{10, textRegister},
		{20, textRegister},
		{10, "1"},
		{20, "2"},
		{20, "Bravo"},
		{10, "Alpha"},
	}
	for _, s := range steps {
		require.NoError(t, text(teletest.NewMessage(s.user, s.msg)), "%d: %s", s.user, s.msg)
	}

	ctx := context.Background()
	a, err := f.players.ByTelegramID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", a.Name)
	assert.Equal(t, int64(1), a.GroupNumber)

	b, err := f.players.ByTelegramID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "Bravo", b.Name)
	assert.Equal(t, int64(2), b.GroupNumber)

	assert.False(t, f.state(t, 10).Active())
	assert.False(t, f.state(t, 20).Active())
}

var errClearFailed = errors.New("clear failed")

type failingClear struct {
	state.Manager
}

func (failingClear) Clear(context.Context, int64) error { return errClearFailed }

func TestNicknameReportsFailedSessionClear(t *testing.T) {
	store := memory.New()
	mgr := state.NewMemoryManager()
	machine := state.NewMachine(failingClear{Manager: mgr})
	players := service.NewPlayers(store)
	h, err := New(Deps{Players: players, Games: service.NewGames(store), Machine: machine})
	require.NoError(t, err)
	machine.Handle(StateNickname, h.Nickname)

	require.NoError(t, mgr.Update(context.Background(), 4, StateNickname, map[string]string{
		keyTelegramID:  "4",
		keyGroupNumber: "3",
	}))

	err = machine.Dispatch(teletest.NewMessage(4, "Tank"))
	require.ErrorIs(t, err, errClearFailed)

	p, err := players.ByTelegramID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Tank", p.Name)
}
