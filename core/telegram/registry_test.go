package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pager/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/register", commands.Command{
		Handler:     noop,
		Description: "Регистрация",
		Aliases:     []string{"Зарегистрироваться", "/reg"},
	}))
	require.NoError(t, reg.RegisterCommand("/credit", commands.Command{Handler: noop, Description: "credit", AdminOnly: true}))

	assert.Error(t, reg.RegisterCommand("/register", commands.Command{Handler: noop, Description: "dup"}))
	assert.Error(t, reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "x"}))
	assert.Error(t, reg.RegisterCommand("/other", commands.Command{Handler: noop, Description: "x", Aliases: []string{"зарегистрироваться"}}))

	for _, text := range []string{"/register", "/register@pager_bot", "/reg", " Зарегистрироваться ", "зарегистрироваться"} {
		name, _, ok := reg.LookupCommand(text)
		assert.True(t, ok, text)
		assert.Equal(t, "/register", name, text)
	}
	_, _, ok := reg.LookupCommand("hello")
	assert.False(t, ok)

	menu := reg.MenuCommands()
	require.Len(t, menu, 1)
	assert.Equal(t, "register", menu[0].Text)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("register.cancel", noop))
	assert.Error(t, reg.RegisterCallback("register.cancel", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.Callback("register.cancel")
	assert.True(t, ok)
	assert.Equal(t, []string{"register.cancel"}, reg.CallbackKeys())
	assert.NotNil(t, reg.CallbackNotFound())
}

type fakeMenu struct{ got []any }

func (f *fakeMenu) SetCommands(opts ...any) error {
	f.got = opts
	return nil
}

func TestInitBotCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Старт"}))
	bot := &fakeMenu{}
	require.NoError(t, InitBotCommands(bot, reg))
	require.Len(t, bot.got, 1)
	assert.Equal(t, []tele.Command{{Text: "start", Description: "Старт"}}, bot.got[0])
}
