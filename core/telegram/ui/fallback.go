// Package ui declares the user-facing replies a bot supplies to the shared routing.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that no command, callback or conversation claimed,
// and updates rejected by access or rate checks.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownMedia() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	AccessDenied() tele.HandlerFunc
	RateLimited() tele.HandlerFunc
}
