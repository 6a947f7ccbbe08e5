package handlers

import (
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// Fallbacks answers updates nothing else claimed.
type Fallbacks struct{}

var _ ui.FallbackProvider = Fallbacks{}

func (Fallbacks) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textUnknownText) }
}

func (Fallbacks) UnknownMedia() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textUnknownMedia) }
}

func (Fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.Answer(c, textUnknownCallback) }
}

func (Fallbacks) AccessDenied() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textAccessDenied) }
}

// RateLimited answers callbacks with a toast and stays silent on messages.
func (Fallbacks) RateLimited() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.Answer(c, textRateLimited) }
}
