package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/commands"
	"github.com/m3rciful/pager/core/telegram/middleware"
	"github.com/m3rciful/pager/core/telegram/teletest"
)

type fakeFSM struct {
	active     map[int64]bool
	dispatched int
}

func (f *fakeFSM) InProgress(c tele.Context) bool { return f.active[c.Sender().ID] }

func (f *fakeFSM) Dispatch(tele.Context) error {
	f.dispatched++
	return nil
}

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func TestMessageRoutesResolvesAliasesBeforeConversation(t *testing.T) {
	reg := tg.NewRegistry()
	var registered int
	require.NoError(t, reg.RegisterCommand("/register", commands.Command{
		Description: "reg",
		Aliases:     []string{"Зарегистрироваться"},
		Handler: func(tele.Context) error {
			registered++
			return nil
		},
	}))
	var unknown int
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	routes := MessageRoutes(fsm, reg, MessageOptions{UnknownText: func(tele.Context) error {
		unknown++
		return nil
	}})
	text := routeFor(t, routes, tele.OnText)

	require.NoError(t, text(teletest.NewMessage(1, "Зарегистрироваться")))
	assert.Zero(t, fsm.dispatched)
	assert.Equal(t, 1, registered)

	require.NoError(t, text(teletest.NewMessage(1, "Neo")))
	assert.Equal(t, 1, fsm.dispatched)

	require.NoError(t, text(teletest.NewMessage(2, "Зарегистрироваться")))
	assert.Equal(t, 2, registered)

	require.NoError(t, text(teletest.NewMessage(2, "what")))
	assert.Equal(t, 1, unknown)
	assert.Equal(t, 1, fsm.dispatched)

	media := routeFor(t, routes, tele.OnMedia)
	require.NoError(t, media(teletest.NewMessage(1, "")))
	assert.Equal(t, 2, fsm.dispatched)
}

func TestCommandRoutesEnforceAdmin(t *testing.T) {
	reg := tg.NewRegistry()
	var credited, rejected int
	require.NoError(t, reg.RegisterCommand("/credit", commands.Command{
		Description: "credit",
		AdminOnly:   true,
		Handler: func(tele.Context) error {
			credited++
			return nil
		},
	}))
	routes := CommandRoutes(reg, CommandOptions{Admin: middleware.AdminOptions{
		AdminID: 10,
		OnReject: func(tele.Context) error {
			rejected++
			return nil
		},
	}})
	h := routeFor(t, routes, "/credit")

	require.NoError(t, h(teletest.NewMessage(10, "/credit 1 5")))
	require.NoError(t, h(teletest.NewMessage(11, "/credit 1 5")))
	assert.Equal(t, 1, credited)
	assert.Equal(t, 1, rejected)
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	var cancelled int
	require.NoError(t, reg.RegisterCallback("register.cancel", func(tele.Context) error {
		cancelled++
		return nil
	}))
	h := CallbackRoute(reg).Handler

	c := teletest.NewCallback(1, "register.cancel", "")
	require.NoError(t, h(c))
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 1, c.Responses())

	unknown := teletest.NewCallback(1, "gone", "")
	require.NoError(t, h(unknown))
	assert.Equal(t, 1, unknown.Responses())
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "player not found" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "PLAYER_NOT_FOUND", errorCode(codedErr{}))
	assert.Equal(t, "PLAINERR", errorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", errorCode(fmt.Errorf("wrap: %w", errors.New("x"))))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "cmd.register", handlerName("cmd", "/Register"))
	assert.Equal(t, "callback.unknown", handlerName("callback", ""))
	assert.Equal(t, "fallback", handlerName("", "fallback"))
}
